package portfolio

import (
	"sort"
	"strings"
	"sync"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// Options tunes a Manager. Zero values fall back to the built-in tables.
type Options struct {
	// Valuations maps program code to an estimated cents-per-point value.
	Valuations map[string]float64
	// ProgramNames maps codes to display names for programs not held.
	ProgramNames map[string]string
	// MaxHops bounds the transfer chains explored by Summary. 0 and 1 keep
	// the one-hop scan; larger values follow chains such as A -> B -> C.
	MaxHops int
}

// Manager holds balances and answers transfer questions over a Graph.
// Reads may run concurrently; writes are serialized.
type Manager struct {
	mu         sync.RWMutex
	graph      *Graph
	programs   []Program
	valuations map[string]float64
	names      map[string]string
	maxHops    int
}

// NewManager creates a manager. A nil graph uses DefaultGraph.
func NewManager(programs []Program, graph *Graph, opts Options) *Manager {
	if graph == nil {
		graph = DefaultGraph()
	}
	valuations := opts.Valuations
	if valuations == nil {
		valuations = DefaultValuations()
	}
	names := opts.ProgramNames
	if names == nil {
		names = DefaultProgramNames()
	}
	maxHops := opts.MaxHops
	if maxHops < 1 {
		maxHops = 1
	}

	m := &Manager{
		graph:      graph,
		valuations: valuations,
		names:      names,
		maxHops:    maxHops,
	}
	m.programs = normalizePrograms(programs)
	return m
}

func normalizePrograms(programs []Program) []Program {
	out := make([]Program, 0, len(programs))
	for _, p := range programs {
		p.Code = common.NormalizeCode(p.Code)
		out = append(out, p)
	}
	return out
}

// Graph returns the transfer graph the manager resolves against.
func (m *Manager) Graph() *Graph {
	return m.graph
}

// SetPrograms replaces the whole portfolio, e.g. after loading from storage.
func (m *Manager) SetPrograms(programs []Program) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programs = normalizePrograms(programs)
}

// Programs returns a copy of the held programs in insertion order.
func (m *Manager) Programs() []Program {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Program, len(m.programs))
	copy(out, m.programs)
	return out
}

// Program returns the held program with the given code.
func (m *Manager) Program(code string) (Program, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.indexLocked(common.NormalizeCode(code))
	if idx < 0 {
		return Program{}, false
	}
	return m.programs[idx], true
}

func (m *Manager) indexLocked(code string) int {
	for i := range m.programs {
		if m.programs[i].Code == code {
			return i
		}
	}
	return -1
}

func (m *Manager) balanceLocked(code string) int64 {
	if idx := m.indexLocked(code); idx >= 0 {
		return m.programs[idx].Balance
	}
	return 0
}

func (m *Manager) nameLocked(code string) string {
	if idx := m.indexLocked(code); idx >= 0 && m.programs[idx].Name != "" {
		return m.programs[idx].Name
	}
	if name, ok := m.names[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

func (m *Manager) valuation(code string) float64 {
	if cpp, ok := m.valuations[code]; ok {
		return cpp
	}
	return DefaultCPP
}

// ProgramName resolves a display name: portfolio name, then the known
// program table, then the upper-cased code.
func (m *Manager) ProgramName(code string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nameLocked(common.NormalizeCode(code))
}

// Balance returns the held balance, 0 for programs not held.
func (m *Manager) Balance(code string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balanceLocked(common.NormalizeCode(code))
}

// TotalPoints sums all balances.
func (m *Manager) TotalPoints() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, p := range m.programs {
		total += p.Balance
	}
	return total
}

// EstimatedValue is the dollar value of one program's balance.
func (m *Manager) EstimatedValue(code string) float64 {
	code = common.NormalizeCode(code)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.balanceLocked(code)) * m.valuation(code) / 100
}

// TotalEstimatedValue sums EstimatedValue over the portfolio.
func (m *Manager) TotalEstimatedValue() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalValueLocked()
}

func (m *Manager) totalValueLocked() float64 {
	var total float64
	for _, p := range m.programs {
		total += float64(p.Balance) * m.valuation(p.Code) / 100
	}
	return total
}

// CanTransferTo reports whether the graph has a source -> target edge.
func (m *Manager) CanTransferTo(source, target string) bool {
	return m.graph.HasEdge(common.NormalizeCode(source), common.NormalizeCode(target))
}

// TransferRatio returns the edge ratio, 0 when there is no edge.
func (m *Manager) TransferRatio(source, target string) float64 {
	ratio, ok := m.graph.Ratio(common.NormalizeCode(source), common.NormalizeCode(target))
	if !ok {
		return 0
	}
	return ratio
}

// pointsNeeded truncates toward zero: a fractional remainder is dropped.
func pointsNeeded(milesNeeded int64, ratio float64) int64 {
	if ratio <= 0 {
		return milesNeeded
	}
	return int64(float64(milesNeeded) / ratio)
}

// FindTransferPaths lists every way to fund milesNeeded in target: the
// direct balance first if held, then one path per held program with an
// edge into target. Affordable paths sort first, then cheapest in source
// points; ties keep that order.
func (m *Manager) FindTransferPaths(target string, milesNeeded int64) []TransferPath {
	target = common.NormalizeCode(target)

	m.mu.RLock()
	defer m.mu.RUnlock()

	targetName := m.nameLocked(target)
	paths := make([]TransferPath, 0)

	if balance := m.balanceLocked(target); balance > 0 {
		paths = append(paths, TransferPath{
			SourceProgram:   target,
			SourceName:      targetName,
			TargetProgram:   target,
			TargetName:      targetName,
			Ratio:           1.0,
			PointsNeeded:    milesNeeded,
			PointsAvailable: balance,
			IsDirect:        true,
		})
	}

	for _, p := range m.programs {
		if p.Code == target {
			continue
		}
		ratio, ok := m.graph.Ratio(p.Code, target)
		if !ok {
			continue
		}
		paths = append(paths, TransferPath{
			SourceProgram:   p.Code,
			SourceName:      m.nameLocked(p.Code),
			TargetProgram:   target,
			TargetName:      targetName,
			Ratio:           ratio,
			PointsNeeded:    pointsNeeded(milesNeeded, ratio),
			PointsAvailable: p.Balance,
			IsDirect:        false,
		})
	}

	sort.SliceStable(paths, func(i, j int) bool {
		ai, aj := paths[i].CanAfford(), paths[j].CanAfford()
		if ai != aj {
			return ai
		}
		return paths[i].PointsNeeded < paths[j].PointsNeeded
	})

	return paths
}

// BestTransferPath returns the first affordable path, else the cheapest
// path overall, else nil when nothing held connects to target.
func (m *Manager) BestTransferPath(target string, milesNeeded int64) *TransferPath {
	paths := m.FindTransferPaths(target, milesNeeded)
	for i := range paths {
		if paths[i].CanAfford() {
			return &paths[i]
		}
	}
	if len(paths) == 0 {
		return nil
	}
	return &paths[0]
}

// ProgramsThatTransferTo lists held programs with a positive balance that
// can fund target: target itself first, then graph sources in order.
func (m *Manager) ProgramsThatTransferTo(target string) []string {
	target = common.NormalizeCode(target)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0)
	if m.balanceLocked(target) > 0 {
		out = append(out, target)
	}
	for _, source := range m.graph.sources {
		if source == target || !m.graph.HasEdge(source, target) {
			continue
		}
		if m.balanceLocked(source) > 0 {
			out = append(out, source)
		}
	}
	return out
}

// Summary rolls up balances and values and picks each program's best use.
// The baseline is direct redemption at the program's own valuation; a
// partner reached over a chain of at most MaxHops edges replaces it only
// when valuation(partner) times the chain's ratio product is strictly
// higher.
func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	programs := make([]Program, len(m.programs))
	copy(programs, m.programs)

	summary := Summary{
		TotalEstimatedValue: m.totalValueLocked(),
		Programs:            programs,
		BestValues:          make(map[string]BestUse, len(programs)),
	}

	for _, p := range programs {
		summary.TotalPoints += p.Balance

		best := BestUse{Description: DirectRedemption, CPP: m.valuation(p.Code)}
		visited := map[string]bool{p.Code: true}
		m.scanChains(p.Code, 1.0, nil, visited, &best)
		summary.BestValues[p.Code] = best
	}

	return summary
}

// scanChains walks outgoing edges depth-first up to maxHops.
func (m *Manager) scanChains(from string, ratio float64, chain []string, visited map[string]bool, best *BestUse) {
	if len(chain) >= m.maxHops {
		return
	}
	for _, e := range m.graph.edges[from] {
		if visited[e.Target] {
			continue
		}
		cumulative := ratio * e.Ratio
		next := append(append([]string(nil), chain...), e.Target)

		if cpp := m.valuation(e.Target) * cumulative; cpp > best.CPP {
			*best = BestUse{Description: m.chainLabel(next), CPP: cpp, Via: next}
		}

		visited[e.Target] = true
		m.scanChains(e.Target, cumulative, next, visited, best)
		delete(visited, e.Target)
	}
}

func (m *Manager) chainLabel(chain []string) string {
	var sb strings.Builder
	for i, code := range chain {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("→ ")
		sb.WriteString(m.nameLocked(code))
	}
	return sb.String()
}

// UpdateBalance sets a held program's balance. It returns false when the
// program is not held.
func (m *Manager) UpdateBalance(code string, balance int64) (bool, error) {
	if balance < 0 {
		return false, common.ErrInvalidBalance
	}
	code = common.NormalizeCode(code)

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(code)
	if idx < 0 {
		return false, nil
	}
	m.programs[idx].Balance = balance
	return true, nil
}

// AddProgram inserts a program or, when the code is already held,
// replaces its name and balance in place.
func (m *Manager) AddProgram(p Program) error {
	p.Code = common.NormalizeCode(p.Code)
	if p.Code == "" {
		return common.ErrEmptyCode
	}
	if p.Balance < 0 {
		return common.ErrInvalidBalance
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Name == "" {
		p.Name = m.nameLocked(p.Code)
	}
	if idx := m.indexLocked(p.Code); idx >= 0 {
		m.programs[idx].Name = p.Name
		m.programs[idx].Balance = p.Balance
		return nil
	}
	if p.TransferRatio == 0 {
		p.TransferRatio = 1.0
	}
	m.programs = append(m.programs, p)
	return nil
}

// RemoveProgram drops the first program with code. It returns false when
// nothing matched.
func (m *Manager) RemoveProgram(code string) bool {
	code = common.NormalizeCode(code)

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(code)
	if idx < 0 {
		return false
	}
	m.programs = append(m.programs[:idx], m.programs[idx+1:]...)
	return true
}
