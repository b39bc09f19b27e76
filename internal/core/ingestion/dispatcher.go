package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultPoolSize はパイプラインを同時実行するワーカー数
	DefaultPoolSize = 4
	// DefaultQueueSize は処理待ちジョブの上限
	DefaultQueueSize = 256
)

// Processor は1ジョブ分の処理を行う（通常は *Pipeline）
type Processor interface {
	Process(ctx context.Context, job Job) (*Result, error)
}

// CompletionFunc はジョブ完了時に呼ばれるコールバック
type CompletionFunc func(job Job, result *Result, err error)

// Dispatcher はアップロード済みファイルをキューに積み、ワーカープールでパイプラインを実行する
//
// ジョブはリクエストとは無関係の context で実行されるため、
// アップロード元のリクエストがキャンセルされても処理は継続する。
type Dispatcher struct {
	processor  Processor
	pool       *ants.Pool
	jobs       chan Job
	done       chan struct{}
	inflight   sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	onComplete CompletionFunc
	logger     *slog.Logger
}

type dispatcherOptions struct {
	poolSize   int
	queueSize  int
	onComplete CompletionFunc
	logger     *slog.Logger
}

// DispatcherOption は Dispatcher のオプション設定
type DispatcherOption func(*dispatcherOptions)

// WithPoolSize はワーカー数を設定する
func WithPoolSize(size int) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.poolSize = size
	}
}

// WithQueueSize はキューの上限を設定する
func WithQueueSize(size int) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.queueSize = size
	}
}

// WithCompletionFunc はジョブ完了時のコールバックを設定する
func WithCompletionFunc(fn CompletionFunc) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.onComplete = fn
	}
}

// WithDispatcherLogger はロガーを設定する
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.logger = logger
	}
}

// NewDispatcher は新しい Dispatcher を作成し、キューの消化を開始する
func NewDispatcher(processor Processor, opts ...DispatcherOption) (*Dispatcher, error) {
	options := dispatcherOptions{
		poolSize:  DefaultPoolSize,
		queueSize: DefaultQueueSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.poolSize < 1 {
		options.poolSize = 1
	}
	if options.queueSize < 1 {
		options.queueSize = 1
	}

	logger := options.logger.With("component", "dispatcher")
	pool, err := ants.NewPool(options.poolSize, ants.WithPanicHandler(func(p any) {
		logger.Error("バックグラウンド処理でpanicが発生", "panic", p)
	}))
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		processor:  processor,
		pool:       pool,
		jobs:       make(chan Job, options.queueSize),
		done:       make(chan struct{}),
		onComplete: options.onComplete,
		logger:     logger,
	}
	go d.feed()

	return d, nil
}

// Enqueue はジョブをキューに積む。ブロックしない
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobs <- job:
		d.logger.Debug("ジョブを登録", "path", job.Path, "queued", len(d.jobs))
		return nil
	default:
		return ErrQueueFull
	}
}

// Close は新規ジョブの受付を止め、キュー内と実行中のジョブの完了を待ってプールを解放する
func (d *Dispatcher) Close(timeout time.Duration) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		<-d.done
		d.inflight.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-time.After(timeout):
		err = errors.New("timed out waiting for ingestion jobs to finish")
		d.logger.Warn("実行中のジョブを待たずに停止します", "timeout", timeout)
	}

	d.pool.Release()
	return err
}

// feed はキューからジョブを取り出してプールに投入する
// プールが埋まっている間は Submit がブロックする
func (d *Dispatcher) feed() {
	defer close(d.done)

	for job := range d.jobs {
		d.inflight.Add(1)
		if err := d.pool.Submit(func() {
			defer d.inflight.Done()
			d.run(job)
		}); err != nil {
			d.inflight.Done()
			d.logger.Error("ジョブの投入に失敗", "path", job.Path, "error", err)
			d.complete(job, nil, err)
		}
	}
}

func (d *Dispatcher) run(job Job) {
	result, err := d.processor.Process(context.Background(), job)
	if err != nil {
		d.logger.Error("バックグラウンド処理が失敗", "path", job.Path, "error", err)
	} else {
		d.logger.Info("バックグラウンド処理が完了",
			"path", job.Path,
			"status", result.Status,
			"chunks", result.Chunks,
		)
	}
	d.complete(job, result, err)
}

func (d *Dispatcher) complete(job Job, result *Result, err error) {
	if d.onComplete != nil {
		d.onComplete(job, result, err)
	}
}
