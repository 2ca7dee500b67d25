// 包 export 将聚合结果写为静态页面使用的 data.json。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-personal-site/internal/aggregate"
	"go-personal-site/internal/model"
)

// maxExportTimeline 为导出时间线的条目上限。
const maxExportTimeline = 150

// ToJSON 运行一次聚合并写入 JSON 文件（带缩进格式）。
func ToJSON(ctx context.Context, run *aggregate.Runner, path string) error {
	res, err := run.Run(ctx)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	return ToJSONData(res, path)
}

// ToJSONData 将已有聚合结果写入 path。
func ToJSONData(res *aggregate.Result, path string) error {
	tl := res.Timeline
	if len(tl) > maxExportTimeline {
		tl = tl[:maxExportTimeline]
	}
	out := model.Export{
		Stats: model.Stats{
			PostsTotal:  len(res.Posts),
			MediumTotal: len(res.Medium),
			UpdatedAt:   time.Now().UTC(),
		},
		Posts:    res.Posts,
		Medium:   res.Medium,
		Timeline: tl,
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	return nil
}
