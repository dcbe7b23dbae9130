package quota

import (
	"context"
	"sync"
	"time"

	"brewspot/config"
)

// GenerationQuotaLimiter 는 메타데이터 생성용 LLM 호출에 대한 분당/일일 한도를 관리한다.
// 프로세스 단위 인메모리 카운터이며 재시작 시 초기화된다.
type GenerationQuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewGenerationQuotaLimiter 는 generation_quota 설정으로 limiter 를 만든다.
// 0 이하인 값은 해당 방향의 제한을 두지 않는다.
func NewGenerationQuotaLimiter(q config.GenerationQuotaConfig) *GenerationQuotaLimiter {
	var interval time.Duration
	if q.RequestsPerMinute > 0 {
		interval = time.Minute / time.Duration(q.RequestsPerMinute)
	}
	daily := q.RequestsPerDay
	if daily < 0 {
		daily = 0
	}
	return &GenerationQuotaLimiter{
		dailyLimit: daily,
		interval:   interval,
		now:        time.Now,
		after:      time.After,
	}
}

// WaitAndReserve 는 생성 호출 전에 한도를 적용한다.
// - 일일 한도 소진: (false, nil). 호출자는 생성을 건너뛴다.
// - 대기 중 컨텍스트 취소: (false, ctx.Err()).
func (l *GenerationQuotaLimiter) WaitAndReserve(ctx context.Context) (bool, error) {
	for {
		l.mu.Lock()

		now := l.now().UTC()
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return false, nil
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = l.lastCall.Add(l.interval).Sub(now)
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return true, nil
		}

		l.mu.Unlock()
		select {
		case <-l.after(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// UsedToday returns the number of reservations made in the current UTC day.
func (l *GenerationQuotaLimiter) UsedToday() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usedToday
}
