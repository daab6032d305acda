// FlowPilot CLI — инструмент командной строки для управления
// устройствами, flows, расписаниями и запуска выполнений через HTTP API.
//
// Использование:
//
//	flowpilot [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	device    Управление устройствами
//	flow      Управление flows
//	exec      Запуск flows и история выполнений
//	schedule  Управление расписаниями
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/savrin/flowpilot/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "flowpilot",
		Short:         "FlowPilot CLI — device flow automation tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewDeviceCmd(clientFn, outputFn),
		cli.NewFlowCmd(clientFn, outputFn),
		cli.NewExecCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
