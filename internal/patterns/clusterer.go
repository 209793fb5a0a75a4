// Package patterns implements a simplified log-template extractor that
// surfaces repeated event summaries (spec §4.6), grouping near-identical
// strings into clusters without any external dependency.
package patterns

import "strings"

const (
	defaultMaxDepth    = 4
	defaultThreshold   = 0.5
	defaultMaxClusters = 100
	maxExamples        = 3
	wildcard           = "*"
)

// Cluster is one group of similar summaries.
type Cluster struct {
	Tokens   []string
	Count    int
	Examples []string
}

// Config carries the clusterer's tunables (spec §4.6).
type Config struct {
	MaxDepth    int
	Threshold   float64
	MaxClusters int
}

// DefaultConfig returns the spec-documented defaults.
func DefaultConfig() Config {
	return Config{MaxDepth: defaultMaxDepth, Threshold: defaultThreshold, MaxClusters: defaultMaxClusters}
}

// Clusterer groups summaries into templates by positional token
// similarity (spec §4.6).
type Clusterer struct {
	cfg      Config
	clusters []*Cluster
}

// New constructs a Clusterer. A zero Config is replaced with defaults.
func New(cfg Config) *Clusterer {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.MaxClusters <= 0 {
		cfg.MaxClusters = defaultMaxClusters
	}
	return &Clusterer{cfg: cfg}
}

// Add tokenizes summary and merges it into the best matching cluster, or
// creates a new one (spec §4.6).
func (c *Clusterer) Add(summary string) {
	tokens := tokenize(summary, c.cfg.MaxDepth)
	if len(tokens) == 0 {
		return
	}

	best, bestScore := c.bestMatch(tokens, c.cfg.MaxDepth)
	if best != nil && bestScore >= c.cfg.Threshold {
		mergeTokens(best.Tokens, tokens)
		best.Count++
		if len(best.Examples) < maxExamples {
			best.Examples = append(best.Examples, summary)
		}
		return
	}

	cluster := &Cluster{
		Tokens:   append([]string(nil), tokens...),
		Count:    1,
		Examples: []string{summary},
	}
	c.clusters = append(c.clusters, cluster)
	if len(c.clusters) > c.cfg.MaxClusters {
		c.evictSmallest()
	}
}

// bestMatch finds the candidate with the same total token count and the
// highest similarity score, scored only over the first maxDepth
// positions (spec §4.6).
func (c *Clusterer) bestMatch(tokens []string, maxDepth int) (*Cluster, float64) {
	var best *Cluster
	bestScore := -1.0
	for _, cl := range c.clusters {
		if len(cl.Tokens) != len(tokens) {
			continue
		}
		score := similarity(cl.Tokens, tokens, maxDepth)
		if score > bestScore {
			best, bestScore = cl, score
		}
	}
	return best, bestScore
}

// similarity is the fraction of the first maxDepth positions that either
// match exactly or are already wildcarded in the candidate cluster's
// template (spec §4.6).
func similarity(template, tokens []string, maxDepth int) float64 {
	n := len(template)
	if n > maxDepth {
		n = maxDepth
	}
	if n == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < n; i++ {
		if template[i] == wildcard || template[i] == tokens[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}

// mergeTokens wildcards any position where template and tokens disagree.
func mergeTokens(template, tokens []string) {
	for i := range template {
		if template[i] != wildcard && template[i] != tokens[i] {
			template[i] = wildcard
		}
	}
}

// evictSmallest drops the cluster with the lowest count, breaking ties by
// keeping the earliest-created cluster.
func (c *Clusterer) evictSmallest() {
	idx := 0
	for i, cl := range c.clusters {
		if cl.Count < c.clusters[idx].Count {
			idx = i
		}
	}
	c.clusters = append(c.clusters[:idx], c.clusters[idx+1:]...)
}

// GetPatterns returns clusters with count >= 2, sorted by count
// descending (spec §4.6).
func (c *Clusterer) GetPatterns() []Cluster {
	out := make([]Cluster, 0, len(c.clusters))
	for _, cl := range c.clusters {
		if cl.Count >= 2 {
			out = append(out, *cl)
		}
	}
	sortByCountDesc(out)
	return out
}

func sortByCountDesc(clusters []Cluster) {
	for i := 1; i < len(clusters); i++ {
		for j := i; j > 0 && clusters[j].Count > clusters[j-1].Count; j-- {
			clusters[j], clusters[j-1] = clusters[j-1], clusters[j]
		}
	}
}

// tokenize splits s on whitespace, capped at maxDepth*4 tokens (spec
// §4.6).
func tokenize(s string, maxDepth int) []string {
	fields := strings.Fields(s)
	limit := maxDepth * 4
	if len(fields) > limit {
		fields = fields[:limit]
	}
	return fields
}
