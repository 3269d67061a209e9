package portfolio

import (
	"fmt"
	"strings"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// FormatSummary renders a summary as plain text for chat and terminal.
//
//	💳 Portfolio: 330,000 points (~$4,950)
//
//	• Chase Ultimate Rewards: 180,000 points
//	  best use: → Singapore KrisFlyer (1.8 cpp)
func FormatSummary(s Summary) string {
	if len(s.Programs) == 0 {
		return "💳 Portfolio is empty. Add a program with /addprogram <code> <balance>"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💳 Portfolio: %s (~%s)\n\n",
		common.FormatPoints(s.TotalPoints), common.FormatDollars(s.TotalEstimatedValue)))

	for _, p := range s.Programs {
		name := p.Name
		if name == "" {
			name = strings.ToUpper(p.Code)
		}
		sb.WriteString(fmt.Sprintf("• %s [%s]: %s\n", name, p.Code, common.FormatPoints(p.Balance)))
		if best, ok := s.BestValues[p.Code]; ok {
			sb.WriteString(fmt.Sprintf("  best use: %s (%.1f cpp)\n", best.Description, best.CPP))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatPaths renders the candidate paths for a target program.
func FormatPaths(target string, milesNeeded int64, paths []TransferPath) string {
	if len(paths) == 0 {
		return fmt.Sprintf("🔍 Nothing in your portfolio reaches %s", target)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔁 Funding %s in %s:\n\n", common.FormatNumber(milesNeeded), paths[0].TargetName))

	for i, p := range paths {
		mark := "✅"
		if !p.CanAfford() {
			mark = "❌"
		}
		kind := "transfer"
		if p.IsDirect {
			kind = "direct"
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s (%s, ratio %.2g): need %s, have %s",
			i+1, mark, p.SourceName, kind, p.Ratio,
			common.FormatNumber(p.PointsNeeded), common.FormatNumber(p.PointsAvailable)))
		if short := p.Shortfall(); short > 0 {
			sb.WriteString(fmt.Sprintf(", short %s", common.FormatNumber(short)))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
