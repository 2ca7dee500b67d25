// 包 schedule 在 API 服务运行期间执行周期任务：
// - export：定时重写 data.json 快照
// - cache-clean：定时清理过期的 Medium 文章缓存
// 每次执行带唯一 id 记录开始/结束日志，panic 被捕获，上一次未结束时顺延。
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"go-personal-site/internal/logx"
)

// Task 为一次周期任务；ctx 在调度器停止时取消。
type Task func(ctx context.Context) error

// Scheduler 封装 cron.Cron，表达式为标准五段格式（支持 @every/@daily 等描述符）。
type Scheduler struct {
	c      *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		c: cron.New(cron.WithChain(
			recoverer(),
			cron.DelayIfStillRunning(cron.DiscardLogger),
		)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add 注册任务；spec 为空时跳过（返回 false）。
func (s *Scheduler) Add(name, spec string, task Task) (bool, error) {
	if spec == "" {
		return false, nil
	}
	_, err := s.c.AddJob(spec, cron.FuncJob(func() { s.run(name, task) }))
	if err != nil {
		return false, fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	logx.Infof("已注册周期任务：%s 表达式=%s", name, spec)
	return true, nil
}

// RunNow 立即同步执行一次任务（与调度执行使用相同日志）。
func (s *Scheduler) RunNow(name string, task Task) {
	s.run(name, task)
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop 停止调度并等待正在执行的任务结束。
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.c.Stop().Done()
}

func (s *Scheduler) run(name string, task Task) {
	id := uuid.NewString()
	start := time.Now()
	err := task(s.ctx)
	attrs := []slog.Attr{
		slog.String("job", name),
		slog.String("run_id", id),
		slog.Duration("took", time.Since(start)),
	}
	if err != nil {
		logx.Attrs(s.ctx, slog.LevelWarn, "周期任务失败", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	logx.Attrs(s.ctx, slog.LevelInfo, "周期任务完成", attrs...)
}

func recoverer() cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logx.Errorf("周期任务 panic：%v\n%s", r, debug.Stack())
				}
			}()
			j.Run()
		})
	}
}
