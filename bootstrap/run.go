package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"btp-bootstrap/config"
	"btp-bootstrap/core"

	log "github.com/ChainSafe/log15"
	"golang.org/x/sync/errgroup"
)

// DialFunc opens the contract call boundary of one chain.
type DialFunc func(cfg *core.ChainConfig, logger log.Logger) (core.Client, error)

// Link is one bidirectional link ready to run: its side clients, configuration
// source and plan options.
type Link struct {
	Name    string
	Clients map[string]core.Client // keyed by side alias
	Source  config.Source
	Options Options
}

type Result struct {
	Link   string
	Report *core.Report
}

// ChainPool dials every configured chain at most once. Links that share a chain
// get the same client, and with it the same signing account and address book.
type ChainPool struct {
	cfg    *config.Config
	book   core.AddressBook
	dial   DialFunc
	logger log.Logger

	mu      sync.Mutex
	clients map[string]core.Client
}

func NewChainPool(cfg *config.Config, book core.AddressBook, dial DialFunc, logger log.Logger) *ChainPool {
	return &ChainPool{
		cfg:     cfg,
		book:    book,
		dial:    dial,
		logger:  logger,
		clients: make(map[string]core.Client),
	}
}

// Client returns the client of the named chain, dialing it on first use.
func (p *ChainPool) Client(name string) (core.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[name]; ok {
		return c, nil
	}
	chain, ok := p.cfg.Chain(name)
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", name)
	}
	client, err := p.dial(&core.ChainConfig{
		Name:         chain.Name,
		Type:         chain.Type,
		Endpoint:     chain.Endpoint,
		From:         chain.From,
		KeystorePath: chain.KeystorePath,
		Insecure:     chain.Insecure,
		AddressBook:  p.book,
		Opts:         chain.Opts,
	}, p.logger.New("chain", chain.Name))
	if err != nil {
		return nil, fmt.Errorf("dial %s err: %w", name, err)
	}
	p.clients[name] = client
	return client, nil
}

// NewLink takes both chains of a configured link from the pool. The env file of
// the link, when set, is read in isolation; otherwise the process environment is used.
func NewLink(pool *ChainPool, raw config.RawLinkConfig) (*Link, error) {
	clients := make(map[string]core.Client, 2)
	for alias, name := range map[string]string{config.SideSrc: raw.Src, config.SideDst: raw.Dst} {
		client, err := pool.Client(name)
		if err != nil {
			return nil, fmt.Errorf("link %s: %w", raw.Name, err)
		}
		clients[alias] = client
	}

	src := config.ProcessSource()
	if raw.EnvFile != "" {
		fileSrc, err := config.ReadEnvFile(raw.EnvFile)
		if err != nil {
			return nil, err
		}
		src = fileSrc
	}

	return &Link{
		Name:    raw.Name,
		Clients: clients,
		Source:  src,
		Options: Options{
			Attach:      raw.Attach,
			Redeploy:    raw.Redeploy,
			Services:    raw.Services,
			StepTimeout: raw.StepTimeout.Duration,
		},
	}, nil
}

// PlanFunc turns link options into the ordered steps of a run.
type PlanFunc func(opts Options) []*core.Step

// Run executes plan for one link with a fresh sequencer.
func Run(ctx context.Context, link *Link, plan PlanFunc, logger log.Logger) *core.Report {
	seq := core.NewSequencer(link.Clients, logger)
	seq.SetStepTimeout(link.Options.StepTimeout)
	logger.Info("Starting link run", "src", link.Clients[config.SideSrc].Name(), "dst", link.Clients[config.SideDst].Name())
	return seq.Run(ctx, link.Source, plan(link.Options))
}

// RunAll runs the links concurrently, except that links sharing a chain run one
// after another in the given order: a later link then reuses the contracts an
// earlier one deployed on the shared chain. Links never cancel each other; the
// error is that of the first link, in order, that did not end operational.
func RunAll(ctx context.Context, links []*Link, plan PlanFunc, logger log.Logger) ([]Result, error) {
	results := make([]Result, len(links))
	g := new(errgroup.Group)
	for _, group := range groupByChain(links) {
		group := group
		g.Go(func() error {
			var first error
			for _, i := range group {
				link := links[i]
				report := Run(ctx, link, plan, logger.New("link", link.Name))
				results[i] = Result{Link: link.Name, Report: report}
				if err := report.Err(); err != nil && first == nil {
					first = fmt.Errorf("link %s: %w", link.Name, err)
				}
			}
			return first
		})
	}
	if err := g.Wait(); err != nil {
		for _, r := range results {
			if err := r.Report.Err(); err != nil {
				return results, fmt.Errorf("link %s: %w", r.Link, err)
			}
		}
		return results, err
	}
	return results, nil
}

// groupByChain partitions link indexes so that links touching a common chain,
// directly or through other links, fall in the same group. Groups and their
// members keep the input order.
func groupByChain(links []*Link) [][]int {
	parent := make([]int, len(links))
	for i := range parent {
		parent[i] = i
	}
	var find func(i int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	owner := make(map[string]int)
	for i, link := range links {
		for _, c := range link.Clients {
			name := c.Name()
			if j, ok := owner[name]; ok {
				a, b := find(i), find(j)
				if a < b {
					a, b = b, a
				}
				parent[a] = b
				continue
			}
			owner[name] = i
		}
	}

	index := make(map[int]int)
	groups := make([][]int, 0)
	for i := range links {
		root := find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
