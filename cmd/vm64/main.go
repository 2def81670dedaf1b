// Command vm64 loads a flat binary image, wires any configured native
// devices onto the address and port buses, and runs the CPU to
// completion (or drops into a single-step debug REPL with --debug).
package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"gopkg.in/urfave/cli.v2"

	"github.com/vm64fantasy/vm64/config"
	"github.com/vm64fantasy/vm64/engine"
	"github.com/vm64fantasy/vm64/loader"
)

// defaultMemorySize is the size of the RAM region always mapped at
// address 0, before any config file is applied; configured address
// devices must lie outside it, and images and their working data must
// fit inside it.
const defaultMemorySize = 1 << 20

func main() {
	app := &cli.App{
		Name:      "vm64",
		Usage:     "run a flat binary image on the vm64 fantasy CPU",
		ArgsUsage: "<input_file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "device configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "run in single-step debug mode",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		cli.ShowAppHelp(c)
		return cli.Exit("missing input file", 1)
	}

	bus := engine.NewAddressBus()
	ports := engine.NewPortBus()
	mem := engine.NewMemory(defaultMemorySize)
	if err := bus.Add(0, defaultMemorySize, mem); err != nil {
		return cli.Exit(err, 1)
	}

	if configPath := c.String("config"); configPath != "" {
		records, err := config.Load(configPath)
		if err != nil {
			return cli.Exit(err, 1)
		}
		if err := config.Apply(records, bus, ports); err != nil {
			return cli.Exit(err, 1)
		}
	}

	if err := loader.LoadImage(input, mem); err != nil {
		return cli.Exit(err, 1)
	}

	cpu := engine.NewCPU(bus, ports)
	defer bus.Shutdown()
	defer ports.Shutdown()

	if c.Bool("debug") {
		runDebugMode(cpu, bus)
	} else {
		runProgram(cpu)
	}

	return nil
}

// recoverFault is the last line of defense against a guest fault the CPU
// itself could not turn into a clean dispatch (e.g. a bus panicking on a
// malformed device): report it with instruction context instead of
// crashing the process.
func recoverFault(cpu *engine.CPU) {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "fault at ip=0x%x: %v\n", cpu.Register(engine.IP), r)
	}
}

// runProgram disables the garbage collector for the duration of the
// run, since instruction dispatch allocates no long-lived memory and GC
// pauses are pure overhead in the hot clock loop.
func runProgram(cpu *engine.CPU) {
	gcPercent := readGCPercent()

	defer recoverFault(cpu)
	defer debug.SetGCPercent(gcPercent)
	debug.SetGCPercent(-1)

	for !cpu.Halted() {
		cpu.Clock()
	}
}

func readGCPercent() int {
	v, ok := os.LookupEnv("GOGC")
	if !ok {
		return 100
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 100
	}
	return int(n)
}

// runDebugMode drives a single-step REPL: "n"/"next" executes one clock
// tick, "r"/"run" free-runs until a breakpoint or halt, "b <addr>"
// toggles a breakpoint on an IP value, bare Enter prints state again.
func runDebugMode(cpu *engine.CPU, bus *engine.AddressBus) {
	defer recoverFault(cpu)

	fmt.Println("Commands:\n\tn or next: execute next instruction\n\tr or run: run program\n\tb or break <addr>: break at address (or remove)")
	printState(cpu, bus)

	reader := bufio.NewReader(os.Stdin)
	breakpoints := make(map[uint64]struct{})
	running := false

	for !cpu.Halted() {
		if running {
			if _, ok := breakpoints[cpu.Register(engine.IP)]; ok {
				running = false
				fmt.Println("breakpoint")
				printState(cpu, bus)
				continue
			}
			cpu.Clock()
			continue
		}

		fmt.Print("\n-> ")
		line, _ := reader.ReadString('\n')
		line = strings.ToLower(strings.TrimSpace(line))

		switch {
		case line == "n" || line == "next":
			cpu.Clock()
			printState(cpu, bus)
		case line == "r" || line == "run":
			running = true
		case strings.HasPrefix(line, "b"):
			toggleBreakpoint(breakpoints, line)
		default:
			printState(cpu, bus)
		}
	}

	printState(cpu, bus)
}

func toggleBreakpoint(breakpoints map[uint64]struct{}, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	addr, err := strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		fmt.Println("unknown address:", err)
		return
	}
	if _, ok := breakpoints[addr]; ok {
		delete(breakpoints, addr)
	} else {
		breakpoints[addr] = struct{}{}
	}
}

func printState(cpu *engine.CPU, bus *engine.AddressBus) {
	fmt.Printf("ip=0x%x sp=0x%x x0=0x%x x1=0x%x x2=0x%x x3=0x%x x4=0x%x flags=0x%x halted=%v next=%s\n",
		cpu.Register(engine.IP), cpu.Register(engine.SP),
		cpu.Register(engine.X0), cpu.Register(engine.X1), cpu.Register(engine.X2),
		cpu.Register(engine.X3), cpu.Register(engine.X4),
		cpu.Flags(), cpu.Halted(), engine.MnemonicAt(bus, cpu.Register(engine.IP)))
}
