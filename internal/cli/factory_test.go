package cli

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/corebot/internal/config"
	"github.com/aretw0/corebot/internal/logging"
	"github.com/aretw0/corebot/pkg/dialogs"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/ports"
)

func TestNewPersistence_Backends(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	cases := []struct {
		name   string
		cfg    config.StoreConfig
		locker bool
	}{
		{name: "memory", cfg: config.StoreConfig{Backend: config.StoreMemory}},
		{name: "file", cfg: config.StoreConfig{Backend: config.StoreFile, Path: filepath.Join(dir, "sessions")}},
		{name: "sqlite", cfg: config.StoreConfig{Backend: config.StoreSQLite, Path: filepath.Join(dir, "db", "corebot.db")}},
		{name: "badger", cfg: config.StoreConfig{Backend: config.StoreBadger}},
		{name: "redis", locker: true, cfg: config.StoreConfig{
			Backend: config.StoreRedis,
			Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "test:"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.cfg.Backend == config.StoreBadger {
				tc.cfg.Path = filepath.Join(dir, "badger")
			}
			p, err := NewPersistence(context.Background(), tc.cfg, logging.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = p.Close() })

			assert.Equal(t, tc.locker, p.Locker != nil)
			ports.RunStackStoreContract(t, p.Store)
		})
	}
}

func TestNewPersistence_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewPersistence(ctx, config.StoreConfig{Backend: "etcd"}, logging.NewNop())
	assert.ErrorContains(t, err, "unknown store backend")

	_, err = NewPersistence(ctx, config.StoreConfig{Backend: config.StoreMemory, EncryptionKey: "c2hvcnQ="}, logging.NewNop())
	assert.ErrorContains(t, err, "32 bytes")

	_, err = NewPersistence(ctx, config.StoreConfig{Backend: config.StoreRedis, Redis: config.RedisConfig{Addr: "127.0.0.1:1"}}, logging.NewNop())
	assert.ErrorContains(t, err, "connect redis")
}

func TestNewPersistence_Middleware(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	cfg := config.StoreConfig{Backend: config.StoreMemory, EncryptionKey: key, PIIKeys: []string{"caller"}}

	p, err := NewPersistence(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	stack := domain.NewStack()
	stack.Push(domain.Frame{DialogID: dialogs.OrderPizzaDialogID, State: map[string]any{"caller": "+1555", "size": "large"}})
	require.NoError(t, p.Store.Save(ctx, "c", stack))

	got, err := p.Store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "***", got.Top().State["caller"])
	assert.Equal(t, "large", got.Top().State["size"])
}

func TestNewCatalog(t *testing.T) {
	catalog, err := NewCatalog(context.Background(), config.LocaleConfig{Fallback: "en-US"}, logging.NewNop())
	require.NoError(t, err)
	assert.Contains(t, catalog.Tags(), "fr-FR")

	_, err = NewCatalog(context.Background(), config.LocaleConfig{Dir: t.TempDir()}, logging.NewNop())
	assert.Error(t, err)
}

func TestNewApp_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	app, err := NewApp(context.Background(), config.Default(), logging.NewNop(), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	_, err = app.Bot.Handle(context.Background(), domain.Activity{
		Type:         domain.ActivityMessage,
		Text:         "hello",
		Conversation: domain.ConversationAccount{ID: "m"},
	})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "corebot_turns_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, NewRecognizer(config.Default().CLU, logging.NewNop()).IsConfigured())
}
