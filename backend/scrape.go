package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/lo"

	"git.sr.ht/~arlen/stripchart/chart"
)

// ScrapeMetrics polls a Prometheus metrics endpoint. Every poll becomes one
// time-step whose readings are the gauge, untyped, and counter values found
// there, tagged with the metric name plus its label pairs. Summaries and
// histograms carry no single plottable value and are skipped.
func (d *Datasource) ScrapeMetrics(url string, interval time.Duration) {
	d.run(url, Status{Mode: ModeScraping, Source: url}, func(ctx context.Context, update func(func(*Status))) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var series []string
		for {
			families, err := scrape(ctx, url)
			if err != nil {
				return err
			}
			batch := flatten(families)
			if len(batch) != len(series) {
				series = lo.Map(batch, func(r chart.Reading, _ int) string { return r.ID })
				update(func(s *Status) { s.Series = series })
			}
			if len(batch) > 0 {
				select {
				case d.batches <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
}

func scrape(ctx context.Context, url string) ([]dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	dec := expfmt.NewDecoder(res.Body, expfmt.ResponseFormat(res.Header))
	var families []dto.MetricFamily
	for {
		var family dto.MetricFamily
		err = dec.Decode(&family)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding metric family: %w", err)
		}
		families = append(families, family)
	}
	return families, nil
}

// flatten turns decoded families into one reading per metric dimension, in
// exposition order so the batch stays positionally stable across polls.
func flatten(families []dto.MetricFamily) []chart.Reading {
	plottable := lo.Filter(families, func(f dto.MetricFamily, _ int) bool {
		switch f.GetType() {
		case dto.MetricType_GAUGE, dto.MetricType_UNTYPED, dto.MetricType_COUNTER:
			return true
		}
		return false
	})
	var batch []chart.Reading
	for _, family := range plottable {
		for _, metric := range family.Metric {
			var value float64
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				value = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				value = metric.GetGauge().GetValue()
			default:
				value = metric.GetUntyped().GetValue()
			}
			id := family.GetName()
			if len(metric.Label) > 0 {
				pairs := lo.Map(metric.Label, func(l *dto.LabelPair, _ int) string {
					return l.GetName() + ":" + l.GetValue()
				})
				id += " " + strings.Join(pairs, " ")
			}
			batch = append(batch, chart.Reading{Value: value, ID: id})
		}
	}
	return batch
}
