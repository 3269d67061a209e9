package subscribers

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

// Channels selects where alerts go.
type Channels struct {
	// Terminal logs unicorns at warn level.
	Terminal bool
	// Telegram sends unicorns to every active subscriber.
	Telegram bool
	// PriceDrops also sends major drops when Telegram is on.
	PriceDrops bool
}

// Notifier fans scan alerts out to subscribers.
type Notifier struct {
	service  *Service
	bot      common.Sender
	alerts   *deals.AlertManager
	channels Channels
}

func NewNotifier(service *Service, bot common.Sender, alerts *deals.AlertManager, channels Channels) *Notifier {
	return &Notifier{service: service, bot: bot, alerts: alerts, channels: channels}
}

func (n *Notifier) NotifyUnicorn(ctx context.Context, d *deals.Deal) {
	if n.channels.Terminal {
		f := d.Award.Flight
		log.WithFields(log.Fields{
			"route":   f.Origin + "-" + f.Destination,
			"program": d.Award.Program,
			"miles":   d.Award.Miles,
			"cpp":     d.CPP,
			"date":    f.Departure.Format("2006-01-02"),
		}).Warn("🦄 Unicorn deal")
	}
	if n.channels.Telegram {
		n.broadcast(ctx, n.alerts.FormatAlert(d))
	}
}

func (n *Notifier) NotifyPriceDrop(ctx context.Context, p deals.PriceDrop) {
	if n.channels.Terminal {
		log.WithField("drop", p.Summary()).Info("Price drop")
	}
	if n.channels.Telegram && n.channels.PriceDrops {
		n.broadcast(ctx, deals.FormatPriceDrop(p))
	}
}

func (n *Notifier) broadcast(ctx context.Context, text string) {
	if n.bot == nil {
		return
	}
	ids, err := n.service.ActiveChatIDs(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list subscribers")
		return
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		common.SendText(n.bot, id, text)
	}
	log.WithField("subscribers", len(ids)).Debug("Alert broadcast")
}
