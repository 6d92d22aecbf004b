// Package collector exposes modem channel status as Prometheus
// metrics for the daemon mode.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/log"

	"github.com/fenderle/arris-scraper/internal/modem"
	"github.com/fenderle/arris-scraper/internal/units"
)

// Namespace is the prefix of every exported metric.
const Namespace = "arris"

var channelLabelNames = []string{"channel"}

func newChannelMetric(subsystemName, metricName, docString string, extraLabels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(Namespace, subsystemName, metricName), docString, append(channelLabelNames, extraLabels...), nil)
}

var (
	upMetric = prometheus.NewDesc(prometheus.BuildFQName(Namespace, "", "up"), "Was the last modem scrape successful.", nil, nil)

	usFrequency  = newChannelMetric("upstream", "frequency_hz", "Upstream Center Frequency")
	usPower      = newChannelMetric("upstream", "power_dbmv", "Upstream Transmit Level")
	usSymbolRate = newChannelMetric("upstream", "symbol_rate_sym_per_second", "Upstream Symbol Rate")
	usInfo       = newChannelMetric("upstream", "channel_info", "Upstream Channel Type and Modulation", "channel_type", "modulation")

	dsFrequency   = newChannelMetric("downstream", "frequency_hz", "Downstream Center Frequency")
	dsPower       = newChannelMetric("downstream", "power_dbmv", "Downstream Receive Level")
	dsSNR         = newChannelMetric("downstream", "snr_db", "Downstream SNR")
	dsOctets      = newChannelMetric("downstream", "octets_total", "Downstream Octets")
	dsCorrected   = newChannelMetric("downstream", "codewords_corrected_total", "Downstream Corrected Codewords")
	dsUncorrected = newChannelMetric("downstream", "codewords_uncorrectable_total", "Downstream Uncorrectable Codewords")
	dsInfo        = newChannelMetric("downstream", "channel_info", "Downstream Modulation", "modulation")

	ofdmWidth       = newChannelMetric("ofdm", "channel_width_hz", "Downstream OFDM Channel Width")
	ofdmSubcarriers = newChannelMetric("ofdm", "subcarriers", "Downstream OFDM Subcarrier Count")
	ofdmMERPilot    = newChannelMetric("ofdm", "rx_mer_pilot_db", "Downstream OFDM RxMER Pilot")
	ofdmMERPLC      = newChannelMetric("ofdm", "rx_mer_plc_db", "Downstream OFDM RxMER PLC")
	ofdmMERData     = newChannelMetric("ofdm", "rx_mer_data_db", "Downstream OFDM RxMER Data")
	ofdmInfo        = newChannelMetric("ofdm", "channel_info", "Downstream OFDM FFT Type", "fft_type")
)

// Exporter scrapes the modem's status page on every collection.
type Exporter struct {
	client  *modem.Client
	timeout time.Duration
	mutex   sync.Mutex

	totalScrapes          prometheus.Counter
	scrapeErrors          prometheus.Counter
	clientRequestCount    *prometheus.CounterVec
	clientRequestDuration *prometheus.HistogramVec
}

// New builds an exporter whose HTTP client is instrumented with
// request counters and latency histograms.
func New(cfg modem.ClientConfig, timeout time.Duration) *Exporter {
	clientRequestCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "exporter_client_requests_total",
		Help:      "HTTP requests to the modem",
	}, []string{"code", "method"})

	clientRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "exporter_client_request_duration_seconds",
		Help:      "Histogram of modem HTTP request latencies.",
	}, []string{"code", "method"})

	httpClient := modem.DefaultHTTPClient(timeout)
	httpClient.Transport = promhttp.InstrumentRoundTripperCounter(clientRequestCount,
		promhttp.InstrumentRoundTripperDuration(clientRequestDuration, httpClient.Transport))
	cfg.HTTPClient = httpClient

	return &Exporter{
		client:  modem.NewClient(cfg),
		timeout: timeout,
		totalScrapes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "exporter_scrapes_total",
			Help:      "Current total modem scrapes.",
		}),
		scrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "exporter_scrape_errors_total",
			Help:      "Number of failed modem scrapes.",
		}),
		clientRequestCount:    clientRequestCount,
		clientRequestDuration: clientRequestDuration,
	}
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- upMetric
	ch <- usFrequency
	ch <- usPower
	ch <- usSymbolRate
	ch <- usInfo
	ch <- dsFrequency
	ch <- dsPower
	ch <- dsSNR
	ch <- dsOctets
	ch <- dsCorrected
	ch <- dsUncorrected
	ch <- dsInfo
	ch <- ofdmWidth
	ch <- ofdmSubcarriers
	ch <- ofdmMERPilot
	ch <- ofdmMERPLC
	ch <- ofdmMERData
	ch <- ofdmInfo

	ch <- e.totalScrapes.Desc()
	ch <- e.scrapeErrors.Desc()
	e.clientRequestCount.Describe(ch)
	e.clientRequestDuration.Describe(ch)
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	up := e.scrape(ch)
	ch <- prometheus.MustNewConstMetric(upMetric, prometheus.GaugeValue, up)

	ch <- e.totalScrapes
	ch <- e.scrapeErrors
	e.clientRequestCount.Collect(ch)
	e.clientRequestDuration.Collect(ch)
}

func (e *Exporter) scrape(ch chan<- prometheus.Metric) (up float64) {
	e.totalScrapes.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	status, err := e.client.Status(ctx)
	if err != nil {
		log.Errorln(err)
		e.scrapeErrors.Inc()
		return 0
	}

	for _, c := range status.US {
		channel := fmt.Sprintf("%02d", c.UCID)
		emitQuantity(ch, usFrequency, c.Freq, units.Hz, channel)
		emitQuantity(ch, usPower, c.Power, units.DBmV, channel)
		emitQuantity(ch, usSymbolRate, c.SymbolRate, units.SymPerSec, channel)
		ch <- prometheus.MustNewConstMetric(usInfo, prometheus.GaugeValue, 1, channel, c.ChannelType, c.Modulation)
	}

	for _, c := range status.DS {
		channel := fmt.Sprintf("%02d", c.DCID)
		emitQuantity(ch, dsFrequency, c.Freq, units.Hz, channel)
		emitQuantity(ch, dsPower, c.Power, units.DBmV, channel)
		emitQuantity(ch, dsSNR, c.SNR, units.DB, channel)
		ch <- prometheus.MustNewConstMetric(dsOctets, prometheus.CounterValue, float64(c.Octets), channel)
		ch <- prometheus.MustNewConstMetric(dsCorrected, prometheus.CounterValue, float64(c.Corrected), channel)
		ch <- prometheus.MustNewConstMetric(dsUncorrected, prometheus.CounterValue, float64(c.Uncorrected), channel)
		ch <- prometheus.MustNewConstMetric(dsInfo, prometheus.GaugeValue, 1, channel, c.Modulation)
	}

	for _, s := range status.DSOFDM {
		channel := fmt.Sprintf("%02d", s.DCID)
		emitQuantity(ch, ofdmWidth, s.ChannelWidth, units.Hz, channel)
		ch <- prometheus.MustNewConstMetric(ofdmSubcarriers, prometheus.GaugeValue, float64(s.SubcarrierCount), channel)
		emitQuantity(ch, ofdmMERPilot, s.RxMERPilot, units.DB, channel)
		emitQuantity(ch, ofdmMERPLC, s.RxMERPLC, units.DB, channel)
		emitQuantity(ch, ofdmMERData, s.RxMERData, units.DB, channel)
		ch <- prometheus.MustNewConstMetric(ofdmInfo, prometheus.GaugeValue, 1, channel, s.FFTType)
	}

	return 1
}

func emitQuantity(ch chan<- prometheus.Metric, desc *prometheus.Desc, q units.Quantity, unit units.Unit, labelValues ...string) {
	value, err := q.In(unit)
	if err != nil {
		log.Errorln(err)
		return
	}
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labelValues...)
}
