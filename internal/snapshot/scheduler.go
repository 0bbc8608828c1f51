package snapshot

import (
	"context"
	"nfcattend/internal/providers"
	"nfcattend/internal/snapshot/interfaces"
	"nfcattend/internal/structures"
	"sync"
	"time"
)

const persistTimeout = 30 * time.Second

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	fileManager *FileManager
	opsMu       sync.Mutex
	stop        chan struct{}
	done        chan struct{}
}

func (s *Scheduler) Init() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	ticker := time.NewTicker(s.config.Snapshot.Interval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = s.Persist()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	start := time.Now()
	err := s.fileManager.SaveToFile(ctx, s.config.Snapshot.FilePath)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while writing snapshot: %s", err)
		return err
	}
	s.logger.Infof(providers.TypeApp, "Snapshot written to %s", s.config.Snapshot.FilePath)
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, fileManager *FileManager) interfaces.SchedulerInterface {
	if !config.Snapshot.Enabled {
		return &noopScheduler{}
	}
	return &Scheduler{
		config:      config,
		logger:      logger,
		metrics:     metrics,
		fileManager: fileManager,
	}
}

// noopScheduler is used when snapshots are disabled.
type noopScheduler struct{}

func (n *noopScheduler) Init()          {}
func (n *noopScheduler) Stop()          {}
func (n *noopScheduler) Persist() error { return nil }
