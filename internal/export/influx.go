package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/InfluxCommunity/influxdb3-go/v2/influxdb3"

	"github.com/fenderle/arris-scraper/internal/modem"
	"github.com/fenderle/arris-scraper/internal/speedtest"
	"github.com/fenderle/arris-scraper/internal/units"
)

// InfluxExporter writes channel status and speedtest measurements.
type InfluxExporter struct {
	client *influxdb3.Client
}

func NewInfluxExporter(url, token, org, bucket string) (*InfluxExporter, error) {
	client, err := influxdb3.New(influxdb3.ClientConfig{
		Host:         url,
		Token:        token,
		Organization: org,
		Database:     bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("influx: creating client: %w", err)
	}
	return &InfluxExporter{client: client}, nil
}

func (e *InfluxExporter) Close() error {
	return e.client.Close()
}

// ExportStatus writes one point per channel and OFDM stream, all
// sharing a single observation timestamp.
func (e *InfluxExporter) ExportStatus(ctx context.Context, status *modem.Status) error {
	ts := time.Now().UTC()
	points := make([]*influxdb3.Point, 0, len(status.US)+len(status.DS)+len(status.DSOFDM))

	for _, ch := range status.US {
		freq, err := ch.Freq.In(units.MHz)
		if err != nil {
			return fmt.Errorf("influx: upstream channel %d: %w", ch.UCID, err)
		}
		power, err := ch.Power.In(units.DBmV)
		if err != nil {
			return fmt.Errorf("influx: upstream channel %d: %w", ch.UCID, err)
		}
		rate, err := ch.SymbolRate.In(units.KSymPerSec)
		if err != nil {
			return fmt.Errorf("influx: upstream channel %d: %w", ch.UCID, err)
		}

		points = append(points, influxdb3.NewPoint("arris_us_channel",
			map[string]string{
				"ucid":         strconv.Itoa(ch.UCID),
				"channel_type": ch.ChannelType,
				"modulation":   ch.Modulation,
			},
			map[string]any{
				"freq_mhz":         freq,
				"power_dbmv":       power,
				"symbol_rate_ksym": rate,
			},
			ts))
	}

	for _, ch := range status.DS {
		freq, err := ch.Freq.In(units.MHz)
		if err != nil {
			return fmt.Errorf("influx: downstream channel %d: %w", ch.DCID, err)
		}
		power, err := ch.Power.In(units.DBmV)
		if err != nil {
			return fmt.Errorf("influx: downstream channel %d: %w", ch.DCID, err)
		}
		snr, err := ch.SNR.In(units.DB)
		if err != nil {
			return fmt.Errorf("influx: downstream channel %d: %w", ch.DCID, err)
		}

		points = append(points, influxdb3.NewPoint("arris_ds_channel",
			map[string]string{
				"dcid":       strconv.Itoa(ch.DCID),
				"modulation": ch.Modulation,
			},
			map[string]any{
				"freq_mhz":    freq,
				"power_dbmv":  power,
				"snr_db":      snr,
				"octets":      ch.Octets,
				"corrected":   ch.Corrected,
				"uncorrected": ch.Uncorrected,
			},
			ts))
	}

	for _, s := range status.DSOFDM {
		width, err := s.ChannelWidth.In(units.MHz)
		if err != nil {
			return fmt.Errorf("influx: OFDM stream %d: %w", s.DCID, err)
		}
		first, err := s.SubcarrierFirst.In(units.MHz)
		if err != nil {
			return fmt.Errorf("influx: OFDM stream %d: %w", s.DCID, err)
		}
		last, err := s.SubcarrierLast.In(units.MHz)
		if err != nil {
			return fmt.Errorf("influx: OFDM stream %d: %w", s.DCID, err)
		}
		merPilot, err := s.RxMERPilot.In(units.DB)
		if err != nil {
			return fmt.Errorf("influx: OFDM stream %d: %w", s.DCID, err)
		}
		merPLC, err := s.RxMERPLC.In(units.DB)
		if err != nil {
			return fmt.Errorf("influx: OFDM stream %d: %w", s.DCID, err)
		}
		merData, err := s.RxMERData.In(units.DB)
		if err != nil {
			return fmt.Errorf("influx: OFDM stream %d: %w", s.DCID, err)
		}

		points = append(points, influxdb3.NewPoint("arris_ds_ofdm",
			map[string]string{
				"dcid":     strconv.Itoa(s.DCID),
				"fft_type": s.FFTType,
			},
			map[string]any{
				"channel_width_mhz":    width,
				"subcarrier_count":     s.SubcarrierCount,
				"subcarrier_first_mhz": first,
				"subcarrier_last_mhz":  last,
				"rx_mer_pilot_db":      merPilot,
				"rx_mer_plc_db":        merPLC,
				"rx_mer_data_db":       merData,
			},
			ts))
	}

	if len(points) == 0 {
		return nil
	}
	if err := e.client.WritePoints(ctx, points); err != nil {
		return fmt.Errorf("influx: writing status points: %w", err)
	}
	return nil
}

// ExportSpeedtest writes one point per run.
func (e *InfluxExporter) ExportSpeedtest(ctx context.Context, res *speedtest.Result) error {
	fields := map[string]any{
		"server_name":     res.ServerName,
		"server_location": res.ServerLocation,
		"result_id":       res.ResultID,
		"result_url":      res.ResultURL,
	}

	for name, src := range map[string]struct {
		q    units.Quantity
		unit units.Unit
	}{
		"ping_latency_ms":         {res.PingLatency, units.Millisecond},
		"ping_jitter_ms":          {res.PingJitter, units.Millisecond},
		"packet_loss_pct":         {res.PacketLoss, units.PercentUnit},
		"download_mbps":           {res.DownloadBandwidth, units.MbitPerSec},
		"download_bytes":          {res.DownloadBytes, units.Byte},
		"download_elapsed_ms":     {res.DownloadElapsed, units.Millisecond},
		"download_latency_iqm_ms": {res.DownloadLatencyIQM, units.Millisecond},
		"upload_mbps":             {res.UploadBandwidth, units.MbitPerSec},
		"upload_bytes":            {res.UploadBytes, units.Byte},
		"upload_elapsed_ms":       {res.UploadElapsed, units.Millisecond},
		"upload_latency_iqm_ms":   {res.UploadLatencyIQM, units.Millisecond},
	} {
		value, err := src.q.In(src.unit)
		if err != nil {
			return fmt.Errorf("influx: speedtest field %s: %w", name, err)
		}
		fields[name] = value
	}

	point := influxdb3.NewPoint("arris_speedtest",
		map[string]string{
			"isp":       res.ISP,
			"server_id": strconv.Itoa(res.ServerID),
		},
		fields,
		time.Now().UTC())

	if err := e.client.WritePoints(ctx, []*influxdb3.Point{point}); err != nil {
		return fmt.Errorf("influx: writing speedtest point: %w", err)
	}
	return nil
}
