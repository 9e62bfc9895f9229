package main

import (
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/logger"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/timer"
	"github.com/palemoky/spelling-bee/internal/ui"
)

type options struct {
	server    string
	room      string
	role      string
	wordsFile string
	logDir    string
	logLevel  string
	total     int
	yellow    int
	red       int
}

func (o *options) validate() error {
	if !room.ValidCode(o.room) {
		return fmt.Errorf("room code must be 4 digits: %q", o.room)
	}
	if !protocol.ValidRole(o.role) {
		return fmt.Errorf("invalid role %q (want judge, display or audience)", o.role)
	}
	if o.red <= 0 || o.red > o.yellow || o.yellow > o.total {
		return fmt.Errorf("timer thresholds must satisfy 0 < red (%d) <= yellow (%d) <= total (%d)", o.red, o.yellow, o.total)
	}
	return nil
}

func main() {
	log.SetFlags(0)
	cobra.CheckErr(newCmd(&options{}).Execute())
}

func newCmd(o *options) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SPELLINGBEE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "spelling-bee --room 4821 --role judge",
		Short: "Terminal judge, display and audience screens for a spelling bee room.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			return run(cmd, o)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&o.server, "server", "s", "http://localhost:3000", "server address (env: SPELLINGBEE_SERVER)")
	fs.StringVarP(&o.room, "room", "r", "", "4-digit room code (env: SPELLINGBEE_ROOM)")
	fs.StringVar(&o.role, "role", protocol.RoleDisplay, "judge, display or audience (env: SPELLINGBEE_ROLE)")
	fs.StringVarP(&o.wordsFile, "words", "w", "", "judge only: pick words from this json file instead of the server")
	fs.StringVar(&o.logDir, "log-dir", "", "directory for debug.log (default ~/.spelling-bee)")
	fs.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error (env: SPELLINGBEE_LOG_LEVEL)")
	fs.IntVar(&o.total, "timer-total", 90, "countdown length in seconds")
	fs.IntVar(&o.yellow, "timer-yellow", 60, "seconds left when the countdown turns yellow")
	fs.IntVar(&o.red, "timer-red", 30, "seconds left when the countdown turns red")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func run(cmd *cobra.Command, o *options) error {
	zl, path, err := logger.NewFile(o.logDir, o.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("client starting", zap.String("server", o.server), zap.String("room", o.room), zap.String("role", o.role))

	opts := ui.Options{
		ServerURL: o.server,
		Room:      o.room,
		Role:      o.role,
		Timer:     timer.Config{TotalTime: o.total, YellowPhaseStart: o.yellow, RedPhaseStart: o.red},
		Logger:    zl,
	}
	if o.wordsFile != "" && o.role == protocol.RoleJudge {
		bank, err := ui.WordSourceFromFile(o.wordsFile, zl.Named("words"))
		if err != nil {
			return fmt.Errorf("open %s: %w", o.wordsFile, err)
		}
		defer func() { _ = bank.Close() }()
		opts.Words = bank
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ui.Run(ctx, opts); err != nil {
		return fmt.Errorf("%w (log: %s)", err, path)
	}
	return nil
}
