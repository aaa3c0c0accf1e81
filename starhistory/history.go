package starhistory

import (
	"bytes"
	"encoding/json"
	"errors"
)

// StarHistory 服务端返回的 JSON，按原始字节保存，客户端不做校验
type StarHistory struct {
	raw json.RawMessage
}

// StarRecord 服务端 starRecords 数组中的一项
type StarRecord struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func emptyHistory() StarHistory {
	return StarHistory{raw: json.RawMessage("{}")}
}

// NewStarHistory 用一段 JSON 构造 StarHistory（测试与缓存回放用）
func NewStarHistory(raw []byte) StarHistory {
	return StarHistory{raw: append(json.RawMessage(nil), raw...)}
}

// Raw 返回原始 JSON 的副本
func (h StarHistory) Raw() json.RawMessage {
	return append(json.RawMessage(nil), h.raw...)
}

// Empty 对应 "没有数据"：无内容、null、false、0、""、{} 或 []
func (h StarHistory) Empty() bool {
	raw := bytes.TrimSpace(h.raw)
	if len(raw) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// Decode 把原始 JSON 解码到 v
func (h StarHistory) Decode(v any) error {
	if len(h.raw) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(h.raw, v)
}

// Records 解码 starRecords 数组
func (h StarHistory) Records() ([]StarRecord, error) {
	var body struct {
		StarRecords *[]StarRecord `json:"starRecords"`
	}
	if err := h.Decode(&body); err != nil {
		return nil, &Error{Kind: KindDecode, Op: OpRecords, Err: err}
	}
	if body.StarRecords == nil {
		return nil, &Error{Kind: KindDecode, Op: OpRecords, Err: errors.New("missing starRecords")}
	}
	return *body.StarRecords, nil
}

// MarshalJSON 原样输出，空值输出 {}
func (h StarHistory) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(h.raw)) == 0 {
		return []byte("{}"), nil
	}
	return h.Raw(), nil
}
