package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zhang-wangz/startHistoryAction/starhistory"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"", ColorAuto},
		{"auto", ColorAuto},
		{"always", ColorAlways},
		{"never", ColorNever},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColorMode(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseColorMode(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseColorMode("rainbow"); err == nil {
		t.Error("expected error for invalid color mode, got nil")
	}
}

func TestResolveColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if !ResolveColors(ColorAlways) {
		t.Error("ColorAlways must win over NO_COLOR")
	}
	if ResolveColors(ColorAuto) {
		t.Error("ColorAuto must honor NO_COLOR")
	}
	if ResolveColors(ColorNever) {
		t.Error("ColorNever must disable colors")
	}
}

func TestPrinter_PlainPrefixes(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, ColorNever)

	p.Success("图表已保存到: %s", "star_history.png")
	p.Warning("slow")
	p.Error("获取数据失败")

	if got := out.String(); got != "[OK] 图表已保存到: star_history.png\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); !strings.Contains(got, "[WARN] slow") || !strings.Contains(got, "[ERROR] 获取数据失败") {
		t.Errorf("stderr = %q", got)
	}
}

func TestPrinter_ColorsForced(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, &out, ColorAlways)
	p.Success("hello")
	if !strings.Contains(out.String(), "\x1b[") {
		t.Errorf("expected ANSI escape, got %q", out.String())
	}
}

func TestPrinter_JSONKeepsNonASCII(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, &out, ColorNever)
	if err := p.JSON(map[string]any{"error": "仓库 <a/b> 未找到"}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	want := "{\n  \"error\": \"仓库 <a/b> 未找到\"\n}\n"
	if out.String() != want {
		t.Errorf("JSON output = %q, want %q", out.String(), want)
	}
}

func TestRecordsTable(t *testing.T) {
	var out bytes.Buffer
	err := RecordsTable(&out, []starhistory.StarRecord{
		{Date: "2023/05/01", Count: 1},
		{Date: "2024/05/01", Count: 120},
	})
	if err != nil {
		t.Fatalf("RecordsTable: %v", err)
	}
	got := out.String()
	for _, want := range []string{"DATE", "STARS", "2023/05/01", "2024/05/01", "120"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
}
