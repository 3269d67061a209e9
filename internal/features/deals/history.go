package deals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// historyWindow is how many stored deals are read before filtering.
const historyWindow = 500

var errBadFilter = errors.New("filters are min=<cpp> max=<cpp> program=<code> cabin=<cabin> saver affordable unicorns")

// History returns up to limit of the newest stored deals matching c, newest
// first. limit <= 0 returns every match in the window.
func History(ctx context.Context, store DealReader, limit int, c FilterCriteria) ([]*Deal, error) {
	window := historyWindow
	if limit > window {
		window = limit
	}
	recent, err := store.RecentDeals(ctx, window, c.UnicornsOnly)
	if err != nil {
		return nil, fmt.Errorf("recent deals: %w", err)
	}

	out := FilterDeals(recent, c)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ParseFilterArgs reads chat filter tokens such as
// "min=7 program=ana,united cabin=first saver".
func ParseFilterArgs(args []string) (FilterCriteria, error) {
	var c FilterCriteria
	for _, arg := range args {
		key, value, hasValue := strings.Cut(strings.ToLower(strings.TrimSpace(arg)), "=")
		switch {
		case key == "":
			continue
		case key == "saver" && !hasValue:
			c.SaverOnly = true
		case key == "affordable" && !hasValue:
			c.AffordableOnly = true
		case key == "unicorns" && !hasValue:
			c.UnicornsOnly = true
		case key == "min" || key == "max":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil || v < 0 {
				return FilterCriteria{}, fmt.Errorf("%s: cpp must be a number", key)
			}
			if key == "min" {
				c.MinCPP = &v
			} else {
				c.MaxCPP = &v
			}
		case key == "program" && value != "":
			for _, code := range strings.Split(value, ",") {
				if code = common.NormalizeCode(code); code != "" {
					c.Programs = append(c.Programs, code)
				}
			}
		case key == "cabin" && value != "":
			cabin, err := ParseCabin(value)
			if err != nil {
				return FilterCriteria{}, err
			}
			c.Cabins = append(c.Cabins, cabin)
		default:
			return FilterCriteria{}, fmt.Errorf("%q: %w", arg, errBadFilter)
		}
	}
	if c.MinCPP != nil && c.MaxCPP != nil && *c.MinCPP > *c.MaxCPP {
		return FilterCriteria{}, errors.New("min cpp is above max cpp")
	}
	return c, nil
}

// IsZero reports whether c filters nothing out.
func (c FilterCriteria) IsZero() bool {
	return c.MinCPP == nil && c.MaxCPP == nil && !c.UnicornsOnly && !c.AffordableOnly &&
		!c.SaverOnly && len(c.Cabins) == 0 && len(c.Programs) == 0
}
