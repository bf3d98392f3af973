package override

import (
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

var (
	reaperCron *cron.Cron
	reaperMu   sync.Mutex
)

// StartReaper 启动过期清扫任务（每分钟一次）。
// 清扫只影响报表时效，过期判定本身在状态转移时懒惰执行。
func StartReaper() {
	reaperMu.Lock()
	defer reaperMu.Unlock()

	if reaperCron != nil {
		reaperCron.Stop()
	}
	c := cron.New()
	if _, err := c.AddFunc("* * * * *", func() {
		n, err := ExpireStale()
		if err != nil {
			log.Printf("override reaper failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("override reaper expired %d stale requests", n)
		}
	}); err != nil {
		log.Printf("failed to register override reaper: %v", err)
		return
	}
	c.Start()
	reaperCron = c
}

// StopReaper 停止清扫任务
func StopReaper() {
	reaperMu.Lock()
	defer reaperMu.Unlock()
	if reaperCron != nil {
		reaperCron.Stop()
		reaperCron = nil
	}
}
