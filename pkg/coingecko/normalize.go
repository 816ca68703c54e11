package coingecko

import (
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/Sternrassler/coingecko-gateway/pkg/price"
)

// NormalizeSearch maps a /search payload to coins, keeping upstream order
// and dropping every field except id, symbol and name.
func NormalizeSearch(body []byte) ([]price.Coin, error) {
	n := normalizer{op: OpSearch}

	coins, err := n.array(gjson.ParseBytes(body), "coins")
	if err != nil {
		return nil, err
	}

	out := make([]price.Coin, 0, len(coins))
	for i, raw := range coins {
		coin, err := n.coin(raw, fmt.Sprintf("coins.%d", i))
		if err != nil {
			return nil, err
		}
		out = append(out, coin)
	}
	return out, nil
}

// NormalizeTrending maps a /search/trending payload to trending coins sorted
// ascending by the upstream score. Equal scores keep their input order.
func NormalizeTrending(body []byte) ([]price.TrendingCoin, error) {
	n := normalizer{op: OpSearchTrending}

	coins, err := n.array(gjson.ParseBytes(body), "coins")
	if err != nil {
		return nil, err
	}

	type scored struct {
		score float64
		coin  price.TrendingCoin
	}
	items := make([]scored, 0, len(coins))

	for i, wrapped := range coins {
		path := fmt.Sprintf("coins.%d.item", i)
		item := wrapped.Get("item")
		if !item.IsObject() {
			return nil, n.fail(path, "expected object")
		}

		coin, err := n.coin(item, path)
		if err != nil {
			return nil, err
		}
		score, err := n.number(item, path, "score", true)
		if err != nil {
			return nil, err
		}
		rank, err := n.number(item, path, "market_cap_rank", false)
		if err != nil {
			return nil, err
		}
		priceBtc, err := n.number(item, path, "price_btc", false)
		if err != nil {
			return nil, err
		}
		thumb, err := n.str(item, path, "thumb", false)
		if err != nil {
			return nil, err
		}
		small, err := n.str(item, path, "small", false)
		if err != nil {
			return nil, err
		}
		large, err := n.str(item, path, "large", false)
		if err != nil {
			return nil, err
		}

		items = append(items, scored{
			score: score,
			coin: price.TrendingCoin{
				Coin:          coin,
				MarketCapRank: int(rank),
				ThumbImg:      thumb,
				SmallImg:      small,
				LargeImg:      large,
				PriceBtc:      priceBtc,
			},
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score < items[j].score
	})

	out := make([]price.TrendingCoin, len(items))
	for i, it := range items {
		out[i] = it.coin
	}
	return out, nil
}

// NormalizeChart renames the snake_case market_chart series. Samples are
// passed through in upstream order.
func NormalizeChart(body []byte) (price.Chart, error) {
	n := normalizer{op: OpPriceChart}
	root := gjson.ParseBytes(body)

	prices, err := n.points(root, "prices")
	if err != nil {
		return price.Chart{}, err
	}
	marketCaps, err := n.points(root, "market_caps")
	if err != nil {
		return price.Chart{}, err
	}
	totalVolumes, err := n.points(root, "total_volumes")
	if err != nil {
		return price.Chart{}, err
	}

	return price.Chart{
		Prices:       prices,
		MarketCaps:   marketCaps,
		TotalVolumes: totalVolumes,
	}, nil
}

// NormalizeOHLC decodes the [timestamp, open, high, low, close] tuples of an
// /ohlc payload without altering them.
func NormalizeOHLC(body []byte) (price.OHLCPrice, error) {
	n := normalizer{op: OpPriceOHLC}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, n.fail("$", "expected array")
	}

	rows := root.Array()
	out := make(price.OHLCPrice, 0, len(rows))
	for i, row := range rows {
		v, err := n.tuple(row, fmt.Sprintf("%d", i), 5)
		if err != nil {
			return nil, err
		}
		out = append(out, price.Candle{
			TimestampMs: int64(v[0]),
			Open:        v[1],
			High:        v[2],
			Low:         v[3],
			Close:       v[4],
		})
	}
	return out, nil
}

// normalizer carries the operation name into NormalizationError.
type normalizer struct {
	op string
}

func (n normalizer) fail(path, reason string) error {
	return &NormalizationError{Operation: n.op, Path: path, Reason: reason}
}

func (n normalizer) array(obj gjson.Result, field string) ([]gjson.Result, error) {
	v := obj.Get(field)
	if !v.Exists() {
		return nil, n.fail(field, "missing required field")
	}
	if !v.IsArray() {
		return nil, n.fail(field, "expected array")
	}
	return v.Array(), nil
}

func (n normalizer) coin(obj gjson.Result, path string) (price.Coin, error) {
	if !obj.IsObject() {
		return price.Coin{}, n.fail(path, "expected object")
	}
	id, err := n.str(obj, path, "id", true)
	if err != nil {
		return price.Coin{}, err
	}
	symbol, err := n.str(obj, path, "symbol", true)
	if err != nil {
		return price.Coin{}, err
	}
	name, err := n.str(obj, path, "name", true)
	if err != nil {
		return price.Coin{}, err
	}
	return price.Coin{ID: id, Symbol: symbol, Name: name}, nil
}

// str reads a string field. Optional fields may be absent or null.
func (n normalizer) str(obj gjson.Result, path, field string, required bool) (string, error) {
	v := obj.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		if required {
			return "", n.fail(path+"."+field, "missing required field")
		}
		return "", nil
	}
	if v.Type != gjson.String {
		return "", n.fail(path+"."+field, "expected string")
	}
	return v.Str, nil
}

// number reads a numeric field. Optional fields may be absent or null.
func (n normalizer) number(obj gjson.Result, path, field string, required bool) (float64, error) {
	v := obj.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		if required {
			return 0, n.fail(path+"."+field, "missing required field")
		}
		return 0, nil
	}
	if v.Type != gjson.Number {
		return 0, n.fail(path+"."+field, "expected number")
	}
	return v.Num, nil
}

func (n normalizer) points(obj gjson.Result, field string) ([]price.Point, error) {
	rows, err := n.array(obj, field)
	if err != nil {
		return nil, err
	}

	out := make([]price.Point, 0, len(rows))
	for i, row := range rows {
		v, err := n.tuple(row, fmt.Sprintf("%s.%d", field, i), 2)
		if err != nil {
			return nil, err
		}
		out = append(out, price.Point{TimestampMs: int64(v[0]), Value: v[1]})
	}
	return out, nil
}

// tuple reads a fixed-arity array of numbers.
func (n normalizer) tuple(row gjson.Result, path string, arity int) ([]float64, error) {
	if !row.IsArray() {
		return nil, n.fail(path, "expected array")
	}
	elems := row.Array()
	if len(elems) != arity {
		return nil, n.fail(path, fmt.Sprintf("expected %d elements, got %d", arity, len(elems)))
	}

	out := make([]float64, arity)
	for i, e := range elems {
		if e.Type != gjson.Number {
			return nil, n.fail(fmt.Sprintf("%s.%d", path, i), "expected number")
		}
		out[i] = e.Num
	}
	return out, nil
}
