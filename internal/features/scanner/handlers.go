package scanner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/collectors"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

const (
	searchUsage  = "Usage: /search <ORIG> <DEST> [cabin] [YYYY-MM-DD]"
	compareUsage = "Usage: /compare <ORIG> <DEST> [cabin] [YYYY-MM-DD]"
)

type Handler struct {
	scanner  *Scanner
	bot      common.Sender
	scanning atomic.Bool
}

func NewHandler(scanner *Scanner, bot common.Sender) *Handler {
	return &Handler{scanner: scanner, bot: bot}
}

// HandleSearch runs an ad-hoc search.
func (h *Handler) HandleSearch(ctx context.Context, chatID int64, args []string) {
	q, err := ParseSearchArgs(args, time.Now())
	if err != nil {
		common.SendText(h.bot, chatID, "❌ "+err.Error()+"\n"+searchUsage)
		return
	}

	res, err := h.scanner.Search(ctx, q)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"origin":      q.Origin,
			"destination": q.Destination,
		}).Error("Search failed")
		common.SendText(h.bot, chatID, "❌ Search failed")
		return
	}
	common.SendText(h.bot, chatID, FormatSearchResult(res, 10))
}

// HandleCompare compares the programs offering one route on one day.
func (h *Handler) HandleCompare(ctx context.Context, chatID int64, args []string) {
	q, err := ParseSearchArgs(args, time.Now())
	if err != nil {
		common.SendText(h.bot, chatID, "❌ "+err.Error()+"\n"+compareUsage)
		return
	}

	res, err := h.scanner.Compare(ctx, q)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"origin":      q.Origin,
			"destination": q.Destination,
		}).Error("Compare failed")
		common.SendText(h.bot, chatID, "❌ Compare failed")
		return
	}
	common.SendText(h.bot, chatID, FormatCompareResult(res))
}

// HandleScan runs a full scan unless one started from chat is still going.
func (h *Handler) HandleScan(ctx context.Context, chatID int64) {
	if !h.scanning.CompareAndSwap(false, true) {
		common.SendText(h.bot, chatID, "⏳ A scan is already running")
		return
	}
	defer h.scanning.Store(false)

	common.SendText(h.bot, chatID, "🔎 Scanning "+common.FormatCount(int64(len(h.scanner.Routes())), "route", "routes")+"...")
	res := h.scanner.ScanAllRoutes(ctx)
	common.SendText(h.bot, chatID, FormatScanResult(res))
}

var errBadDate = errors.New("date must be YYYY-MM-DD")

// ParseSearchArgs reads "<ORIG> <DEST> [cabin] [YYYY-MM-DD]". The date
// defaults to now.
func ParseSearchArgs(args []string, now time.Time) (collectors.Query, error) {
	if len(args) < 2 {
		return collectors.Query{}, common.ErrMissingRoute
	}
	q := collectors.Query{
		Origin:      common.NormalizeAirport(args[0]),
		Destination: common.NormalizeAirport(args[1]),
		Cabin:       deals.CabinBusiness,
		Date:        now,
	}
	if len(q.Origin) != 3 || len(q.Destination) != 3 {
		return collectors.Query{}, errors.New("airports are 3-letter codes")
	}

	for _, arg := range args[2:] {
		if strings.Count(arg, "-") == 2 && len(arg) == len(time.DateOnly) {
			d, err := time.ParseInLocation(time.DateOnly, arg, now.Location())
			if err != nil {
				return collectors.Query{}, errBadDate
			}
			q.Date = d
			continue
		}
		cabin, err := deals.ParseCabin(arg)
		if err != nil {
			return collectors.Query{}, err
		}
		q.Cabin = cabin
	}
	return q.Normalize(), nil
}
