package system

import (
	"context"
	"strings"

	"hai-firmware/bus"
	"hai-firmware/errlog"
	"hai-firmware/kernel"
	"hai-firmware/types"
)

var (
	topicErrlogDump  = bus.T(types.TopicErrlog, "dump")
	topicErrlogClear = bus.T(types.TopicErrlog, "clear")
	topicProcState   = bus.T(types.TopicProc, "state")
)

// Service answers diagnostic requests on the bus: the error-log dump, log
// clear and a scheduler mask snapshot.
type Service struct {
	log   *errlog.Log
	sched *kernel.Scheduler
}

func NewService(log *errlog.Log, sched *kernel.Scheduler) *Service {
	return &Service{log: log, sched: sched}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, subs []*bus.Subscription) {
	defer func() {
		for _, sub := range subs {
			conn.Unsubscribe(sub)
		}
	}()
	dump, clear, state := subs[0].Channel(), subs[1].Channel(), subs[2].Channel()

	for {
		select {
		case <-ctx.Done():
			println("[system] service stopping")
			return
		case m, ok := <-dump:
			if !ok {
				return
			}
			var sb strings.Builder
			if err := s.log.Dump(&sb); err != nil {
				println("[system] dump:", err.Error())
			}
			conn.Reply(m, sb.String(), false)
		case m, ok := <-clear:
			if !ok {
				return
			}
			s.log.Clear()
			conn.Reply(m, 0, false)
		case m, ok := <-state:
			if !ok {
				return
			}
			ms := s.sched.Snapshot()
			conn.Reply(m, types.SchedState{
				Active:        uint32(ms.Active),
				NextTick:      uint32(ms.NextTick),
				SleepVeto:     uint32(ms.SleepVeto),
				DeepSleepVeto: uint32(ms.DeepSleepVeto),
			}, false)
		}
	}
}

// Start subscribes before returning so requests published afterwards are
// never missed, then serves them until ctx is done.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	subs := []*bus.Subscription{
		conn.Subscribe(topicErrlogDump),
		conn.Subscribe(topicErrlogClear),
		conn.Subscribe(topicProcState),
	}
	go s.serviceLoop(ctx, conn, subs)
	return nil
}
