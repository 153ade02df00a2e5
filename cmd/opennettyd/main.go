// Command opennettyd hosts the OpenNetty gateway runtime. serve starts
// every configured gateway and runs until interrupted; send is a
// one-shot façade call against a running configuration, useful for
// manual testing against real hardware.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/opennetty/opennetty/internal/config"
	"github.com/opennetty/opennetty/internal/controller"
	"github.com/opennetty/opennetty/internal/logging"
	"github.com/opennetty/opennetty/internal/runtime"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "opennettyd",
		Short: "OpenNetty OpenWebNet gateway runtime",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "opennetty.yaml", "path to the gateway/endpoint configuration file")

	root.AddCommand(
		newServeCmd(&configPath),
		newSendCmd(&configPath),
	)
	root.SilenceUsage = true

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start all configured gateways and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewDevelopmentLogger()
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			rt, err := runtime.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return rt.Run(ctx)
		},
	}
}

func newSendCmd(configPath *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "send [operation] [endpoint] [args...]",
		Short: "Run one typed controller operation against a running configuration",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewDevelopmentLogger()
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			rt, err := runtime.New(cfg, logger)
			if err != nil {
				return err
			}

			operation, endpointName, rest := args[0], args[1], args[2:]
			ep, ok := rt.Index.ByName(endpointName)
			if !ok {
				return fmt.Errorf("no endpoint named %q", endpointName)
			}
			ctrl := controller.New(ep, rt.Service)

			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			opCtx, cancel := context.WithTimeout(runCtx, timeout)
			defer cancel()

			go rt.Run(opCtx) // keep the worker alive for the duration of the call

			result, err := runOperation(opCtx, ctrl, operation, rest)
			if err != nil {
				return err
			}
			if result != "" {
				fmt.Println(result)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "deadline for the operation and its gateway session setup")
	return cmd
}

func runOperation(ctx context.Context, c *controller.Controller, operation string, args []string) (string, error) {
	switch operation {
	case "switch-on":
		return "", c.SwitchOn(ctx)
	case "switch-off":
		return "", c.SwitchOff(ctx)
	case "toggle":
		return "", c.Toggle(ctx)
	case "get-switch-state":
		on, err := c.GetSwitchState(ctx)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(on), nil
	case "get-brightness":
		level, err := c.GetBrightness(ctx)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(level), nil
	case "set-brightness":
		if len(args) < 1 {
			return "", fmt.Errorf("set-brightness requires a level argument")
		}
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid brightness level %q: %w", args[0], err)
		}
		accepted, err := c.SetBrightness(ctx, level)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(accepted), nil
	case "get-pilot-wire-configuration":
		cfg, err := c.GetPilotWireConfiguration(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("setpoint=%s derogation_active=%t derogation_mode=%s", cfg.SetpointMode, cfg.DerogationActive, cfg.DerogationMode), nil
	case "set-pilot-wire-setpoint-mode":
		if len(args) < 1 {
			return "", fmt.Errorf("set-pilot-wire-setpoint-mode requires a mode argument")
		}
		return "", c.SetPilotWireSetpointMode(ctx, args[0])
	case "set-pilot-wire-derogation-mode":
		if len(args) < 2 {
			return "", fmt.Errorf("set-pilot-wire-derogation-mode requires mode and duration arguments")
		}
		duration, err := parseDerogationDuration(args[1])
		if err != nil {
			return "", err
		}
		return "", c.SetPilotWireDerogationMode(ctx, args[0], duration)
	case "cancel-pilot-wire-derogation":
		return "", c.CancelPilotWireDerogation(ctx)
	case "get-smart-meter-indexes":
		indexes, err := c.GetSmartMeterIndexes(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%v", indexes.Values), nil
	case "get-water-heater-state":
		return c.GetWaterHeaterState(ctx)
	case "set-water-heater-setpoint-mode":
		if len(args) < 1 {
			return "", fmt.Errorf("set-water-heater-setpoint-mode requires a mode argument")
		}
		return "", c.SetWaterHeaterSetpointMode(ctx, args[0])
	case "dispatch-basic-scenario":
		if len(args) < 1 {
			return "", fmt.Errorf("dispatch-basic-scenario requires a scene number argument")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid scene number %q: %w", args[0], err)
		}
		return "", c.DispatchBasicScenario(ctx, n)
	case "dispatch-on-off-scenario":
		if len(args) < 1 {
			return "", fmt.Errorf("dispatch-on-off-scenario requires an on/off argument")
		}
		on, err := strconv.ParseBool(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid on/off value %q: %w", args[0], err)
		}
		return "", c.DispatchOnOffScenario(ctx, on)
	default:
		return "", fmt.Errorf("unknown operation %q", operation)
	}
}

// parseDerogationDuration accepts either a Go duration ("2h30m") or a
// human-entered absolute end time ("tomorrow 8am"), converting the
// latter into the quarter-hour-count encoding the pilot-wire dimension
// expects.
func parseDerogationDuration(s string) (string, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return strconv.Itoa(int(d / (15 * time.Minute))), nil
	}
	until, err := dateparse.ParseAny(s)
	if err != nil {
		return "", fmt.Errorf("parsing derogation duration %q: %w", s, err)
	}
	remaining := time.Until(until)
	if remaining < 0 {
		remaining = 0
	}
	return strconv.Itoa(int(remaining / (15 * time.Minute))), nil
}
