package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/zhang-wangz/startHistoryAction/starhistory"
)

func main() {
	client, err := starhistory.New(starhistory.WithBaseURL(starhistory.DefaultBaseURL))
	if err != nil {
		panic(err)
	}

	repo := "zhang-wangz/LeetCodeRating"
	token := os.Getenv("GITHUB_TOKEN")
	ctx := context.Background()

	// 1. star 历史数据
	data := client.GetStarHistory(ctx, repo, token)
	if !data.Empty() {
		out, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println("\nStar历史数据:")
		fmt.Println(string(out))
	}

	// 2. PNG 图表
	client.GetChart(ctx, repo, "star_history.png", token, starhistory.ChartDate, starhistory.FormatPNG)
}
