package prometheus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"model-registry-service/internal/config"
	"model-registry-service/internal/core/domain"
	ports "model-registry-service/internal/core/ports/output"
)

type prometheusClient struct {
	baseURL string
	client  *http.Client
	enabled bool
}

// NewPrometheusClient returns a client that answers every query with no data
// when cfg is disabled.
func NewPrometheusClient(cfg *config.PrometheusConfig) ports.PrometheusClient {
	if !cfg.Enabled {
		return &prometheusClient{enabled: false}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &prometheusClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		enabled: true,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *prometheusClient) IsAvailable() bool {
	if !c.enabled {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/-/healthy", nil)
	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("Prometheus health check failed")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// queryRange runs a range query and flattens every returned series into one
// list of points.
func (c *prometheusClient) queryRange(ctx context.Context, promQL string, tr ports.TimeRange) ([]ports.DataPoint, error) {
	if !c.enabled {
		return nil, nil
	}

	step := tr.Step
	if step <= 0 {
		step = time.Minute
	}
	params := url.Values{}
	params.Set("query", promQL)
	params.Set("start", strconv.FormatInt(tr.Start.Unix(), 10))
	params.Set("end", strconv.FormatInt(tr.End.Unix(), 10))
	params.Set("step", strconv.Itoa(int(step.Seconds())))

	reqURL := fmt.Sprintf("%s/api/v1/query_range?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMetricsQueryFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrMetricsQueryFailed, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: status %d", domain.ErrMetricsQueryFailed, resp.StatusCode)
	}

	parsed := gjson.ParseBytes(body)
	if status := parsed.Get("status").String(); status != "success" {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrMetricsQueryFailed, status, parsed.Get("error").String())
	}
	return parseDataPoints(parsed.Get("data.result")), nil
}

// parseDataPoints reads matrix results. Each sample is [unix seconds, "value"].
func parseDataPoints(result gjson.Result) []ports.DataPoint {
	var points []ports.DataPoint
	result.ForEach(func(_, series gjson.Result) bool {
		series.Get("values").ForEach(func(_, sample gjson.Result) bool {
			pair := sample.Array()
			if len(pair) < 2 {
				return true
			}
			val, err := strconv.ParseFloat(pair[1].String(), 64)
			if err != nil {
				return true
			}
			points = append(points, ports.DataPoint{
				Timestamp: time.Unix(int64(pair[0].Float()), 0),
				Value:     val,
			})
			return true
		})
		return true
	})
	return points
}

// revisionPattern matches the Knative revisions of endpoint. The name is
// regex-quoted and then escaped for the PromQL string literal.
func revisionPattern(endpoint string) string {
	quoted := regexp.QuoteMeta(endpoint)
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(quoted) + ".*"
}

// QueryLatencyP99 returns seconds. Knative records the histogram in
// milliseconds.
func (c *prometheusClient) QueryLatencyP99(ctx context.Context, endpoint string, tr ports.TimeRange) ([]ports.DataPoint, error) {
	promQL := fmt.Sprintf(`histogram_quantile(0.99, sum(rate(revision_request_latencies_bucket{revision_name=~"%s"}[5m])) by (le)) / 1000`,
		revisionPattern(endpoint))
	return c.queryRange(ctx, promQL, tr)
}

func (c *prometheusClient) QueryRequestRate(ctx context.Context, endpoint string, tr ports.TimeRange) ([]ports.DataPoint, error) {
	promQL := fmt.Sprintf(`sum(rate(revision_request_count{revision_name=~"%s"}[5m]))`, revisionPattern(endpoint))
	return c.queryRange(ctx, promQL, tr)
}

func (c *prometheusClient) QueryErrorRate(ctx context.Context, endpoint string, tr ports.TimeRange) ([]ports.DataPoint, error) {
	pattern := revisionPattern(endpoint)
	promQL := fmt.Sprintf(
		`sum(rate(revision_request_count{revision_name=~"%s", response_code_class!="2xx"}[5m])) / sum(rate(revision_request_count{revision_name=~"%s"}[5m]))`,
		pattern, pattern)
	return c.queryRange(ctx, promQL, tr)
}

var _ ports.PrometheusClient = (*prometheusClient)(nil)
