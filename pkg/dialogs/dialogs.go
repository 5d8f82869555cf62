// Package dialogs contains the router and the child dialogs of the assistant.
package dialogs

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/corebot/pkg/dialog"
	"github.com/aretw0/corebot/pkg/ports"
	"github.com/aretw0/corebot/pkg/recognizer/clu"
)

// Dialog ids.
const (
	MainDialogID       = "MainDialog"
	BookingDialogID    = "BookingDialog"
	OrderPizzaDialogID = "OrderPizzaDialog"
)

// Config holds the collaborators of the dialogs.
type Config struct {
	Recognizer ports.Recognizer
	Logger     *slog.Logger
	// Now is the clock used for relative dates. Defaults to time.Now.
	Now func() time.Time
	// NewID generates correlation ids. Defaults to uuid.NewString.
	NewID func() string
}

func (c Config) withDefaults() Config {
	if c.Recognizer == nil {
		c.Recognizer = clu.Unconfigured{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}

// Register adds the router and its child dialogs to reg.
func Register(reg *dialog.Registry, cfg Config) error {
	cfg = cfg.withDefaults()
	for _, t := range []*dialog.Template{
		newMainDialog(cfg),
		newBookingDialog(cfg),
		newOrderPizzaDialog(cfg),
	} {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every dialog of the assistant.
func NewRegistry(cfg Config) (*dialog.Registry, error) {
	reg := dialog.NewRegistry()
	if err := Register(reg, cfg); err != nil {
		return nil, err
	}
	return reg, nil
}
