package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"gopkg.in/vrecan/death.v3"

	"github.com/rasterkit/asyncread/internal/component"
	"github.com/rasterkit/asyncread/internal/raster"
	"github.com/rasterkit/asyncread/internal/sink"
	"github.com/rasterkit/asyncread/pkg/eventbus"
)

const version = "0.3.1"

var (
	inputPattern string
	outTypeName  string
	srcWin       []int
	outSize      []string
	timeoutSec   float64
	createOpts   []string
	asyncOpts    []string

	cmdFlags    *flag.FlagSet
	configFlags *flag.FlagSet
	readFlags   *flag.FlagSet
)

func initConfig() *component.Config {
	var conf = new(component.Config)
	configFlags = flag.NewFlagSet("configFlags", flag.ContinueOnError)
	configFlags.BoolVarP(&conf.Recursively, "recursive", "r", false, "scan input directory recursively")
	configFlags.StringVarP(&inputPattern, "pattern", "p", "*.png|*.jpg|*.jpeg|*.bmp|*.tif|*.tiff|*.webp", "input glob pattern in batch mode")
	configFlags.IntVar(&conf.MaxGo, "max_go", runtime.NumCPU(), "max parallel transfers in batch mode")
	configFlags.StringVarP(&conf.Dest, "output", "o", "", "output path, can be omitted in single raster mode")
	configFlags.StringVar(&conf.LogPath, "log", "", "log file path")
	configFlags.BoolVarP(&conf.Quiet, "quiet", "q", false, "suppress progress output")
	configFlags.SortFlags = false
	return conf
}

func initReadFlags(conf *component.Config) {
	readFlags = flag.NewFlagSet("readFlags", flag.ContinueOnError)
	readFlags.StringVar(&conf.Format, "of", "png", "output format, one of: "+strings.Join(sink.Formats(), ", "))
	readFlags.StringVar(&outTypeName, "ot", "", "output pixel type: Byte, Int16, UInt16, Int32, UInt32, Float32, Float64 (default source type)")
	readFlags.IntSliceVarP(&conf.Bands, "band", "b", nil, "source band to read, repeatable (default all)")
	readFlags.IntSliceVar(&srcWin, "srcwin", nil, "source window as xoff,yoff,xsize,ysize (default full raster)")
	readFlags.StringSliceVar(&outSize, "outsize", nil, "output buffer size as xsize,ysize, absolute or percentage (e.g. 50%,50%)")
	readFlags.Float64Var(&timeoutSec, "to", -1, "poll timeout in seconds, <= 0 waits indefinitely")
	readFlags.BoolVar(&conf.Multi, "multi", false, "write a new output file per update instead of one continuous file")
	readFlags.StringArrayVar(&createOpts, "co", nil, "output creation option NAME=VALUE, repeatable")
	readFlags.StringArrayVar(&asyncOpts, "ao", nil, "async reader option NAME=VALUE, repeatable")
	readFlags.SortFlags = false
}

func setupConfig(conf *component.Config) error {
	var err error

	conf.InputMatch, err = component.NewGlobMatcher(inputPattern)
	if err != nil {
		return errors.WithMessage(err, "invalid input pattern: "+inputPattern)
	}

	if outTypeName != "" {
		if conf.OutType, err = raster.ParseDataType(outTypeName); err != nil {
			return err
		}
	}

	switch len(srcWin) {
	case 0:
	case 4:
		copy(conf.SrcWin[:], srcWin)
	default:
		return errors.New("--srcwin needs exactly xoff,yoff,xsize,ysize")
	}

	switch len(outSize) {
	case 0:
	case 2:
		conf.OutSizeX, conf.OutSizeY = outSize[0], outSize[1]
	default:
		return errors.New("--outsize needs exactly xsize,ysize")
	}

	if timeoutSec > 0 {
		conf.Timeout = time.Duration(timeoutSec * float64(time.Second))
	}

	if conf.CreateOpts, err = component.ParseOptionList(createOpts); err != nil {
		return err
	}
	ao, err := component.ParseOptionList(asyncOpts)
	if err != nil {
		return err
	}
	conf.AsyncOpts = ao

	if conf.MaxGo <= 0 {
		conf.MaxGo = runtime.NumCPU()
	}

	conf.Src = cmdFlags.Arg(0)
	if conf.Src == "" {
		return errors.New("input not specify")
	}

	conf.Src = filepath.Clean(conf.Src)
	stat, err := os.Stat(conf.Src)

	if !cmdFlags.Lookup("output").Changed {
		if err == nil && !stat.IsDir() {
			ext := filepath.Ext(conf.Src)
			conf.Dest = conf.Src[:len(conf.Src)-len(ext)] + "." + conf.Format
		} else {
			return errors.New("output not specify")
		}
	}
	conf.Dest = filepath.Clean(conf.Dest)

	if conf.Src == conf.Dest {
		return errors.New("source and destination must be different")
	}

	if err == nil && !cmdFlags.Lookup("log").Changed {
		if stat.IsDir() {
			conf.LogPath = conf.Dest
		} else {
			conf.LogPath = filepath.Dir(conf.Dest)
		}
	}
	conf.LogPath = filepath.Clean(conf.LogPath)

	return nil
}

func printBanner() {
	var banner = `    _                        ___              _
   /_\   ___ _  _ _ _  __   | _ \___ __ _  __| |
  / _ \ (_-<| || | ' \/ _|  |   / -_) _' |/ _' |
 /_/ \_\/__/ \_, |_||_\__|  |_|_\___\__,_|\__,_|
             |__/           %19v
================================================
`
	fmt.Printf(banner, "v"+version)
}

func printUsage() {
	printBanner()
	fmt.Println("Usage:")
	fmt.Printf("\t%v [options] /path/to/raster/or/dir -o out/file/or/dir\n", filepath.Base(os.Args[0]))
	fmt.Println()

	fmt.Println("Options:")
	fmt.Print(configFlags.FlagUsages())
	fmt.Println()

	fmt.Println("Read Options:")
	fmt.Print(readFlags.FlagUsages())
}

func main() {
	conf := initConfig()
	initReadFlags(conf)

	//parse argument
	cmdFlags = flag.NewFlagSet("cmdFlags", flag.ContinueOnError)
	cmdFlags.AddFlagSet(configFlags)
	cmdFlags.AddFlagSet(readFlags)
	printVersion := cmdFlags.BoolP("version", "v", false, "print version")
	cmdFlags.Usage = printUsage
	cmdFlags.SortFlags = false
	err := cmdFlags.Parse(os.Args[1:])
	if err == flag.ErrHelp {
		os.Exit(0)
	} else if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if *printVersion {
		fmt.Printf("asyncread version: v%v\n", version)
		os.Exit(0)
	}

	if err = setupConfig(conf); err != nil {
		log.Fatal(err)
	}

	if err = os.MkdirAll(conf.LogPath, os.ModePerm); err != nil {
		log.Fatalf("can not make log directory <%s>, %v", conf.LogPath, err)
	}
	conf.LogPath = filepath.Join(conf.LogPath, time.Now().Format("asyncread-2006-01-02T15.04.05Z07.00.log"))
	logOut, err := os.Create(conf.LogPath)
	if err != nil {
		log.Fatalf("can not create log file %v", err)
	}
	defer logOut.Close()

	conf.JobQueue = make(chan *component.Job, 1024)
	var (
		eb         = eventbus.New()
		copier     = component.NewCopier(eb, conf)
		monitor    = component.NewMonitor(eb, conf, logOut)
		scanner    = component.NewPathScanner(eb, conf)
		ctx, abort = context.WithCancel(context.Background())
	)

	hook := death.NewDeath(syscall.SIGINT, syscall.SIGTERM)
	go hook.WaitForDeathWithFunc(abort)

	if !conf.Quiet {
		printBanner()
	}
	go copier.Start(ctx)
	go scanner.Scan(ctx)
	monitor.Start(ctx)

	if monitor.Errs > 0 {
		fmt.Println("\nDone with errors.")
		os.Exit(1)
	}
	if !conf.Quiet {
		fmt.Println("\nDone.")
	}
}
