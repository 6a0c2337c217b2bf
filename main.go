package main

import (
	"fmt"
	"os"

	"github.com/voxelbrain/goptions"
)

func main() {
	conf = defaultConfig()
	if err := goptions.Parse(&conf); err != nil {
		if err != goptions.ErrHelpRequest {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		goptions.PrintHelp()
		os.Exit(1)
	}

	setLogger(conf.Debug, conf.Log)

	if conf.Version {
		sugar.Infof("current version: %v", VERSION)
		os.Exit(0)
	}

	if !conf.Rx && !conf.Mq && !conf.Mc {
		goptions.PrintHelp()
		sugar.Fatal("nothing to do: at least one of --rx, --mq or --mc is required")
	}

	if conf.Comp < -1 || conf.Comp > 9 {
		sugar.Fatalf("invalid compression level %d, must be between 0 and 9", conf.Comp)
	}

	timer := InitTimer()
	timer.Tic()

	stats, err := runPipeline()
	if err != nil {
		sugar.Fatalf("%+v", err)
	}

	timer.Toc()
	sugar.Infof("%d records in %d groups processed (RX: %d, MQ: %d, MC: %d) in %v",
		stats.Reads, stats.Groups, stats.RxAdded, stats.MqAdded, stats.McAdded, timer.TicToc())
	if stats.Orphans > 0 {
		sugar.Warnf("%d records were neither first nor second of pair", stats.Orphans)
	}
	if stats.Regrouped > 0 {
		sugar.Warnf("%d read names were split across groups, input does not appear to be grouped by read name", stats.Regrouped)
	}
}

// runPipeline opens both ends, streams every record through the annotator
// and closes source and sink on every exit path, so buffered compressed
// output is flushed even when the transform fails.
func runPipeline() (stats Stats, err error) {
	a, err := newAnnotator(conf.Rx, conf.Mq, conf.Mc)
	if err != nil {
		return stats, err
	}

	sugar.Infof("reading from %s", conf.Input)
	src, err := openSource(conf.Input)
	if err != nil {
		return stats, err
	}
	defer func() {
		if nerr := src.Close(); err == nil {
			err = nerr
		}
	}()

	sugar.Infof("writing to %s", conf.Output)
	sink, err := openSink(conf.Output, src.Header())
	if err != nil {
		return stats, err
	}
	defer func() {
		if nerr := sink.Close(); err == nil {
			err = nerr
		}
	}()

	err = a.run(src, sink)
	return a.stats, err
}
