package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pairs/model"
	"pairs/trading"
)

// CSVProvider 从本地目录读取 <symbol>.csv（列：date,close，首行可为表头）
type CSVProvider struct {
	Dir string
	Loc *time.Location
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{Dir: dir, Loc: trading.CST}
}

func (p *CSVProvider) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, err
	}

	path := filepath.Join(p.Dir, filepath.Base(symbol)+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.PriceSeries{}, fmt.Errorf("%w: %s (%s)", ErrUnknownSymbol, symbol, path)
		}
		return model.PriceSeries{}, err
	}
	defer f.Close()

	points, err := ReadCloses(f, p.Loc)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("%s: %w", path, err)
	}
	return model.PriceSeries{Symbol: symbol, Points: points}.Between(start, end), nil
}

// ReadCloses 解析 date,close 两列；无法解析日期的首行视为表头
func ReadCloses(r io.Reader, loc *time.Location) ([]model.ClosePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []model.ClosePoint
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected date,close", line)
		}
		t, err := trading.ParseDay(rec[0], loc)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid close %q", line, rec[1])
		}
		points = append(points, model.ClosePoint{Time: t, Close: c})
	}
	sortPoints(points)
	return points, nil
}
