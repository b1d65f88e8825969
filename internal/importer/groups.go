package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"CoinScope/internal/collector"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// Group tags and the CoinGecko categories they are drawn from.
const (
	TagTop15        = "TOP15"
	TagMemeTop5     = "MEME_TOP5"
	TagL1Bluechip   = "L1_BLUECHIP"
	TagDeFiBluechip = "DEFI_BLUECHIP"

	CategoryMeme = "meme-token"
	CategoryL1   = "layer-1"
	CategoryDeFi = "decentralized-finance-defi"

	dogecoinID = "dogecoin"

	globalPageSize   = 250
	categoryPageSize = 50
)

// Selection is the membership chosen for each group.
type Selection struct {
	Top15        []collector.MarketCoin
	MemeTop5     []collector.MarketCoin
	L1Bluechip   []collector.MarketCoin
	DeFiBluechip []collector.MarketCoin
	GlobalCount  int
}

type groupSpec struct {
	group   model.Group
	members []collector.MarketCoin
}

func (s Selection) groups() []groupSpec {
	return []groupSpec{
		{model.Group{Tag: TagTop15, Type: "RankBucket", Description: "Top 15 coins by market cap (USD)"}, s.Top15},
		{model.Group{Tag: TagMemeTop5, Type: "Theme", Description: "Top meme coins by market cap (must include DOGE; 5 or 6 members)"}, s.MemeTop5},
		{model.Group{Tag: TagL1Bluechip, Type: "Theme", Description: "Sample of major Layer 1 blockchains (top by market cap in category)"}, s.L1Bluechip},
		{model.Group{Tag: TagDeFiBluechip, Type: "Theme", Description: "Sample of major DeFi blue-chip protocols (top by market cap in category)"}, s.DeFiBluechip},
	}
}

func (s Selection) summary() map[string]any {
	out := map[string]any{"global_count": s.GlobalCount}
	for _, g := range s.groups() {
		out[g.group.Tag] = coinIDs(g.members)
	}
	return out
}

// SelectGroups refreshes the four tracked groups from CoinGecko and marks
// exactly their members active.
func (im *Importer) SelectGroups(ctx context.Context) (*Selection, error) {
	sel, err := im.fetchSelection(ctx)
	if err == nil {
		err = im.store.InTx(ctx, func(w store.Writer) error {
			return applySelection(ctx, w, sel)
		})
	}
	if err != nil {
		im.recordJob(ctx, model.JobGroupSelector, model.JobFailed, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("group selector: %w", err)
	}

	im.recordJob(ctx, model.JobGroupSelector, model.JobSuccess, sel.summary())
	log.Info().
		Int("top15", len(sel.Top15)).
		Int("meme", len(sel.MemeTop5)).
		Int("l1", len(sel.L1Bluechip)).
		Int("defi", len(sel.DeFiBluechip)).
		Msg("group selection completed")
	return sel, nil
}

func (im *Importer) fetchSelection(ctx context.Context) (*Selection, error) {
	global, err := im.fetcher.MarketsGlobal(ctx, globalPageSize)
	if err != nil {
		return nil, fmt.Errorf("global markets: %w", err)
	}
	meme, err := im.fetcher.MarketsByCategory(ctx, CategoryMeme, categoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("%s markets: %w", CategoryMeme, err)
	}
	l1, err := im.fetcher.MarketsByCategory(ctx, CategoryL1, categoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("%s markets: %w", CategoryL1, err)
	}
	defi, err := im.fetcher.MarketsByCategory(ctx, CategoryDeFi, categoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("%s markets: %w", CategoryDeFi, err)
	}

	return &Selection{
		Top15:        topByCap(global, 15),
		MemeTop5:     memeWithDoge(meme, global),
		L1Bluechip:   topByCap(l1, 5),
		DeFiBluechip: topByCap(defi, 5),
		GlobalCount:  len(global),
	}, nil
}

func applySelection(ctx context.Context, w store.Writer, sel *Selection) error {
	assetIDs := make(map[string]uuid.UUID)
	for _, g := range sel.groups() {
		groupID, err := w.UpsertGroup(ctx, g.group)
		if err != nil {
			return err
		}
		members := make([]uuid.UUID, 0, len(g.members))
		for _, c := range g.members {
			id, ok := assetIDs[c.ID]
			if !ok {
				if id, err = w.UpsertAsset(ctx, c.ID, c.Symbol, c.Name); err != nil {
					return err
				}
				assetIDs[c.ID] = id
			}
			members = append(members, id)
		}
		if err := w.ReplaceGroupMembers(ctx, groupID, members); err != nil {
			return err
		}
	}
	return w.RefreshActiveFlags(ctx)
}

// topByCap returns the n coins with the largest market cap; a missing cap
// counts as zero.
func topByCap(coins []collector.MarketCoin, n int) []collector.MarketCoin {
	sorted := make([]collector.MarketCoin, len(coins))
	copy(sorted, coins)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Cap() > sorted[j].Cap() })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// memeWithDoge takes the top five meme coins and appends DOGE when it is
// not already among them, looking it up in the category first and the
// global list second. The group therefore has 5 or 6 members.
func memeWithDoge(meme, global []collector.MarketCoin) []collector.MarketCoin {
	top := topByCap(meme, 5)
	for _, c := range top {
		if c.ID == dogecoinID {
			return top
		}
	}
	if doge, ok := findCoin(meme, dogecoinID); ok {
		return append(top, doge)
	}
	if doge, ok := findCoin(global, dogecoinID); ok {
		return append(top, doge)
	}
	return top
}

func findCoin(coins []collector.MarketCoin, id string) (collector.MarketCoin, bool) {
	for _, c := range coins {
		if c.ID == id {
			return c, true
		}
	}
	return collector.MarketCoin{}, false
}

func coinIDs(coins []collector.MarketCoin) []string {
	ids := make([]string, len(coins))
	for i, c := range coins {
		ids[i] = c.ID
	}
	return ids
}
