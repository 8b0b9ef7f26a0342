package runs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"pairs/backtest"
	"pairs/metrics"
	"pairs/notify"
	"pairs/storage"
)

// Service 执行回测并落库、推送
type Service struct {
	Runner    *backtest.Runner
	Repo      storage.Repository
	Publisher notify.Publisher
	Now       func() time.Time
}

func NewService(runner *backtest.Runner, repo storage.Repository, pub notify.Publisher) *Service {
	if pub == nil {
		pub = notify.Nop{}
	}
	return &Service{Runner: runner, Repo: repo, Publisher: pub, Now: time.Now}
}

// Run 单个配对回测；存储失败返回错误，推送失败只记日志
func (s *Service) Run(ctx context.Context, pair backtest.Pair, start, end time.Time, p backtest.Params) (storage.Run, error) {
	res, err := s.Runner.RunOne(ctx, pair, start, end, p)
	if err != nil {
		return storage.Run{}, err
	}
	run := storage.NewRun(res, s.Now())
	if err := s.Record(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

// Record 保存并推送一条记录
func (s *Service) Record(ctx context.Context, run storage.Run) error {
	if s.Repo != nil {
		if err := s.Repo.SaveRun(ctx, run); err != nil {
			return err
		}
	}
	if err := s.Publisher.Publish(run); err != nil {
		metrics.PublishFailures.Inc()
		log.Warn().Err(err).Str("id", run.ID).Msg("推送回测结果失败")
	}
	return nil
}
