package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/BloggingApp/artblog-service/internal/filestore"
	"github.com/BloggingApp/artblog-service/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	calls   int32
	url     string
	err     error
	delay   time.Duration
	prompts chan string
}

func (p *fakeProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.prompts != nil {
		p.prompts <- prompt
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.url, p.err
}

func (p *fakeProvider) Calls() int {
	return int(atomic.LoadInt32(&p.calls))
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
	urls  []string
}

func (f *fakeFetcher) FetchAndTranscode(ctx context.Context, location string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.urls = append(f.urls, location)
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, "image/jpeg", nil
}

type fakeBroker struct {
	mu        sync.Mutex
	published map[string][]interface{}
}

func (b *fakeBroker) PublishJSON(ctx context.Context, queue string, v interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published == nil {
		b.published = make(map[string][]interface{})
	}
	b.published[queue] = append(b.published[queue], v)
	return nil
}

func (b *fakeBroker) Consume(queue string) (<-chan amqp.Delivery, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBroker) last(queue string) interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.published[queue]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (b *fakeBroker) count(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published[queue])
}

type testEnv struct {
	svc      *Service
	repo     *repository.Repository
	provider *fakeProvider
	fetcher  *fakeFetcher
	files    *filestore.Store
	broker   *fakeBroker
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
		Image: config.ImageConfig{
			Quality:           90,
			ProviderTimeout:   time.Second,
			DownloadTimeout:   time.Second,
			GenerationTimeout: 5 * time.Second,
			GenerateOnCreate:  true,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	files, err := filestore.New(afero.NewMemMapFs(), "/uploads")
	require.NoError(t, err)

	env := &testEnv{
		repo:     repository.NewMemory(),
		provider: &fakeProvider{url: "https://images.test/X.png"},
		fetcher:  &fakeFetcher{data: []byte("jpeg-bytes")},
		files:    files,
		broker:   &fakeBroker{},
	}
	env.svc = New(zap.NewNop(), env.repo, testConfig(), Deps{
		Provider: env.provider,
		Fetcher:  env.fetcher,
		Files:    env.files,
		Broker:   env.broker,
	})
	env.svc.retryDelay = func(int) time.Duration { return 0 }

	return env
}
