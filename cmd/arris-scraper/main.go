// arris-scraper polls an Arris cable modem's web UI for its event log
// and channel status, and forwards them to Loki and InfluxDB. It can
// also run the Ookla speedtest binary or serve Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/log"
	"github.com/prometheus/common/version"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/fenderle/arris-scraper/internal/collector"
	"github.com/fenderle/arris-scraper/internal/export"
	"github.com/fenderle/arris-scraper/internal/modem"
	"github.com/fenderle/arris-scraper/internal/snapshot"
	"github.com/fenderle/arris-scraper/internal/speedtest"
	"github.com/fenderle/arris-scraper/internal/units"
)

const appName = "arris_scraper"

var (
	modemURL      = kingpin.Flag("modem.url", "Base URL of the modem.").Default("https://192.168.100.1/").OverrideDefaultFromEnvar("ARRIS_MODEM_URL").String()
	modemTimezone = kingpin.Flag("modem.timezone", "Timezone the modem stamps event-log entries in.").Default("Local").OverrideDefaultFromEnvar("ARRIS_TIMEZONE").String()
	modemUsername = kingpin.Flag("modem.username", "Username for the modem login (CM3500B).").OverrideDefaultFromEnvar("ARRIS_USERNAME").String()
	modemPassword = kingpin.Flag("modem.password", "Password for the modem login (CM3500B).").OverrideDefaultFromEnvar("ARRIS_PASSWORD").String()
	modemTimeout  = kingpin.Flag("modem.timeout", "Timeout for HTTP requests to the modem.").Default("10s").OverrideDefaultFromEnvar("ARRIS_MODEM_TIMEOUT").Duration()

	eventsCmd          = kingpin.Command("events", "Fetch event-log entries and optionally push them to Loki.")
	eventsSnapshot     = eventsCmd.Flag("snapshot", "Path to the snapshot file.").Default("arris_snapshot.json").OverrideDefaultFromEnvar("ARRIS_EVENTS_SNAPSHOT").String()
	eventsSnapshotSize = eventsCmd.Flag("snapshot.size", "Number of entries kept in the snapshot file.").Default("20").Int()
	eventsDelta        = eventsCmd.Flag("delta", "Report only entries new since the last snapshot.").Default("true").OverrideDefaultFromEnvar("ARRIS_EVENTS_DELTA").Bool()
	eventsLokiURL      = eventsCmd.Flag("loki.url", "Loki base URL; omit to print entries instead.").OverrideDefaultFromEnvar("ARRIS_EVENTS_LOKI_URL").String()
	eventsLokiJob      = eventsCmd.Flag("loki.job", "Loki job label.").Default("arris-scraper").OverrideDefaultFromEnvar("ARRIS_EVENTS_LOKI_JOB").String()
	eventsLokiSource   = eventsCmd.Flag("loki.source", "Loki source label.").Default("arris-modem").OverrideDefaultFromEnvar("ARRIS_EVENTS_LOKI_SOURCE").String()

	statusCmd          = kingpin.Command("status", "Fetch channel status and optionally export it to InfluxDB.")
	statusInfluxURL    = statusCmd.Flag("influx.url", "InfluxDB URL; omit to print the status instead.").OverrideDefaultFromEnvar("ARRIS_STATUS_INFLUX_URL").String()
	statusInfluxToken  = statusCmd.Flag("influx.token", "InfluxDB token.").OverrideDefaultFromEnvar("ARRIS_STATUS_INFLUX_TOKEN").String()
	statusInfluxOrg    = statusCmd.Flag("influx.org", "InfluxDB org.").OverrideDefaultFromEnvar("ARRIS_STATUS_INFLUX_ORG").String()
	statusInfluxBucket = statusCmd.Flag("influx.bucket", "InfluxDB bucket.").OverrideDefaultFromEnvar("ARRIS_STATUS_INFLUX_BUCKET").String()

	speedtestCmd          = kingpin.Command("speedtest", "Run the Ookla speedtest binary and optionally export the result to InfluxDB.")
	speedtestPath         = speedtestCmd.Flag("speedtest.path", "Path to the Ookla speedtest binary.").OverrideDefaultFromEnvar("ARRIS_SPEEDTEST_PATH").String()
	speedtestInfluxURL    = speedtestCmd.Flag("influx.url", "InfluxDB URL; omit to print the result instead.").OverrideDefaultFromEnvar("ARRIS_SPEEDTEST_INFLUX_URL").String()
	speedtestInfluxToken  = speedtestCmd.Flag("influx.token", "InfluxDB token.").OverrideDefaultFromEnvar("ARRIS_SPEEDTEST_INFLUX_TOKEN").String()
	speedtestInfluxOrg    = speedtestCmd.Flag("influx.org", "InfluxDB org.").OverrideDefaultFromEnvar("ARRIS_SPEEDTEST_INFLUX_ORG").String()
	speedtestInfluxBucket = speedtestCmd.Flag("influx.bucket", "InfluxDB bucket.").OverrideDefaultFromEnvar("ARRIS_SPEEDTEST_INFLUX_BUCKET").String()

	serveCmd      = kingpin.Command("serve", "Run as a Prometheus exporter.")
	listenAddress = serveCmd.Flag("web.listen-address", "Address to listen on for web interface and telemetry.").Default(":9393").OverrideDefaultFromEnvar("ARRIS_EXPORTER_PORT").String()
	metricsPath   = serveCmd.Flag("web.telemetry-path", "Path under which to expose metrics.").Default("/metrics").String()
)

func main() {
	// Flag defaults may come from a .env file, so load it first.
	_ = godotenv.Load()

	log.AddFlags(kingpin.CommandLine)
	kingpin.Version(version.Print(appName))
	kingpin.HelpFlag.Short('h')
	cmd := kingpin.Parse()

	loc, err := time.LoadLocation(*modemTimezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", *modemTimezone, err)
	}

	client := modem.NewClient(modem.ClientConfig{
		BaseURL:    *modemURL,
		Username:   *modemUsername,
		Password:   *modemPassword,
		Location:   loc,
		HTTPClient: modem.DefaultHTTPClient(*modemTimeout),
	})

	ctx := context.Background()

	switch cmd {
	case eventsCmd.FullCommand():
		runEvents(ctx, client)
	case statusCmd.FullCommand():
		runStatus(ctx, client)
	case speedtestCmd.FullCommand():
		runSpeedtest(ctx)
	case serveCmd.FullCommand():
		runServe(loc)
	}
}

func runEvents(ctx context.Context, client *modem.Client) {
	events, err := client.Events(ctx)
	if err != nil {
		log.Fatal(err)
	}

	store := snapshot.NewStore(*eventsSnapshot, *eventsSnapshotSize)
	newEvents := events
	if *eventsDelta {
		newEvents = snapshot.FindNew(events, store.Load())
	}
	// An empty parsed log saves nothing: wiping the snapshot would
	// make the next poll re-report the whole table.
	if len(events) > 0 {
		if err := store.Save(events); err != nil {
			log.Fatal(err)
		}
	}
	log.Infof("Found %d new event-log entries", len(newEvents))

	if *eventsLokiURL == "" {
		for _, ev := range newEvents {
			fmt.Printf("%s [%d/%d] %s\n", ev.Timestamp.Format(time.RFC3339), ev.EventID, ev.Level, ev.Description)
		}
		return
	}

	loki := export.NewLokiExporter(*eventsLokiURL, *eventsLokiJob, *eventsLokiSource)
	if err := loki.Push(ctx, newEvents); err != nil {
		log.Fatal(err)
	}
	log.Infof("Exported %d entries to Loki", len(newEvents))
}

func runStatus(ctx context.Context, client *modem.Client) {
	status, err := client.Status(ctx)
	if err != nil {
		log.Fatal(err)
	}

	if *statusInfluxURL == "" {
		printStatus(status)
		return
	}
	requireInfluxFlags(*statusInfluxToken, *statusInfluxOrg, *statusInfluxBucket)

	influx, err := export.NewInfluxExporter(*statusInfluxURL, *statusInfluxToken, *statusInfluxOrg, *statusInfluxBucket)
	if err != nil {
		log.Fatal(err)
	}
	defer influx.Close()

	if err := influx.ExportStatus(ctx, status); err != nil {
		log.Fatal(err)
	}
	log.Infoln("Exported status to InfluxDB")
}

func runSpeedtest(ctx context.Context) {
	if *speedtestPath == "" {
		kingpin.Fatalf("--speedtest.path is required")
	}
	result, err := speedtest.NewRunner(*speedtestPath).Run(ctx)
	if err != nil {
		log.Fatal(err)
	}

	if *speedtestInfluxURL == "" {
		down, _ := result.DownloadBandwidth.In(units.MbitPerSec)
		up, _ := result.UploadBandwidth.In(units.MbitPerSec)
		fmt.Printf("Ping:      %s (jitter %s)\n", result.PingLatency, result.PingJitter)
		fmt.Printf("Download:  %.2f Mbit/s\n", down)
		fmt.Printf("Upload:    %.2f Mbit/s\n", up)
		fmt.Printf("Server:    %s (%s)\n", result.ServerName, result.ServerLocation)
		fmt.Printf("Result:    %s\n", result.ResultURL)
		return
	}
	requireInfluxFlags(*speedtestInfluxToken, *speedtestInfluxOrg, *speedtestInfluxBucket)

	influx, err := export.NewInfluxExporter(*speedtestInfluxURL, *speedtestInfluxToken, *speedtestInfluxOrg, *speedtestInfluxBucket)
	if err != nil {
		log.Fatal(err)
	}
	defer influx.Close()

	if err := influx.ExportSpeedtest(ctx, result); err != nil {
		log.Fatal(err)
	}
	log.Infoln("Exported speedtest to InfluxDB")
}

func requireInfluxFlags(token, org, bucket string) {
	missing := []string{}
	if token == "" {
		missing = append(missing, "--influx.token")
	}
	if org == "" {
		missing = append(missing, "--influx.org")
	}
	if bucket == "" {
		missing = append(missing, "--influx.bucket")
	}
	if len(missing) > 0 {
		kingpin.Fatalf("--influx.url requires: %v", missing)
	}
}

func printStatus(status *modem.Status) {
	for _, c := range status.DS {
		fmt.Printf("DS %3d  %s  %s  SNR %s  %s  corrected %d  uncorrected %d\n",
			c.DCID, c.Freq, c.Power, c.SNR, c.Modulation, c.Corrected, c.Uncorrected)
	}
	for _, c := range status.US {
		fmt.Printf("US %3d  %s  %s  %s  %s  %s\n",
			c.UCID, c.Freq, c.Power, c.ChannelType, c.SymbolRate, c.Modulation)
	}
	for _, s := range status.DSOFDM {
		fmt.Printf("OFDM %3d  %s  %s  %d subcarriers  RxMER %s/%s/%s\n",
			s.DCID, s.FFTType, s.ChannelWidth, s.SubcarrierCount, s.RxMERPilot, s.RxMERPLC, s.RxMERData)
	}
}

func runServe(loc *time.Location) {
	log.Infoln("Starting", appName, version.Info())
	log.Infoln("Build context", version.BuildContext())

	exporter := collector.New(modem.ClientConfig{
		BaseURL:  *modemURL,
		Username: *modemUsername,
		Password: *modemPassword,
		Location: loc,
	}, *modemTimeout)
	prometheus.MustRegister(exporter)
	prometheus.MustRegister(version.NewCollector(appName))

	log.Infoln("Listening on", *listenAddress)
	http.Handle(*metricsPath, promhttp.Handler())
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
             <head><title>Arris Scraper</title></head>
             <body>
             <h1>Arris Scraper</h1>
             <p><a href='` + *metricsPath + `'>Metrics</a></p>
             </body>
             </html>`))
	})
	log.Fatal(http.ListenAndServe(*listenAddress, nil))
}
