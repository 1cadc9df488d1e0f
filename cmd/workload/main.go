// Command workload is a small multi-call demo binary whose subcommands give
// the scheduler real OS processes to submit, pre-empt, and reap. Built from
// the CPU/IO kernels in internal/workload, which were adapted out of the
// teacher repository's internal/handlers package.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"batchshell/internal/workload"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "spin":
		err = cmdSpin(os.Args[2:])
	case "sleep":
		err = cmdSleep(os.Args[2:])
	case "isprime":
		err = cmdIsPrime(os.Args[2:])
	case "factor":
		err = cmdFactor(os.Args[2:])
	case "pi":
		err = cmdPi(os.Args[2:])
	case "matmul":
		err = cmdMatmul(os.Args[2:])
	case "wordcount":
		err = cmdWordCount(os.Args[2:])
	case "grep":
		err = cmdGrep(os.Args[2:])
	case "hashfile":
		err = cmdHashFile(os.Args[2:])
	case "sortfile":
		err = cmdSortFile(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "workload:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: workload <subcommand> [args]

subcommands:
  spin <seconds>
  sleep <seconds>
  isprime <n> [division|miller-rabin]
  factor <n>
  pi <digits>
  matmul <n> <seed>
  wordcount <file>
  grep <pattern> <file>
  hashfile <file>
  sortfile <file> <destfile>`)
}

func cmdSpin(args []string) error {
	secs, err := argSeconds(args)
	if err != nil {
		return err
	}
	workload.Spin(secs)
	return nil
}

func cmdSleep(args []string) error {
	secs, err := argSeconds(args)
	if err != nil {
		return err
	}
	time.Sleep(secs)
	return nil
}

func argSeconds(args []string) (time.Duration, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("expected <seconds>")
	}
	n, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(n * float64(time.Second)), nil
}

func cmdIsPrime(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("expected <n> [division|miller-rabin]")
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return err
	}
	method := "division"
	if len(args) >= 2 {
		method = args[1]
	}
	var prime bool
	switch method {
	case "division":
		prime = workload.IsPrimeDivision(n)
	case "miller-rabin":
		prime = workload.IsPrimeMillerRabin(uint64(n))
	default:
		return fmt.Errorf("unknown method %q", method)
	}
	fmt.Println(prime)
	return nil
}

func cmdFactor(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("expected <n>")
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return err
	}
	for _, f := range workload.Factor(n) {
		fmt.Printf("%d^%d\n", f[0], f[1])
	}
	return nil
}

func cmdPi(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("expected <digits>")
	}
	digits, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	fmt.Println(workload.PiSpigot(digits))
	return nil
}

func cmdMatmul(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("expected <n> <seed>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	seed, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return err
	}
	fmt.Println(workload.MatrixMulHash(n, seed))
	return nil
}

func cmdWordCount(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("expected <file>")
	}
	wc, err := workload.WordCount(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%d %d %d\n", wc.Lines, wc.Words, wc.Bytes)
	return nil
}

func cmdGrep(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("expected <pattern> <file>")
	}
	hits, err := workload.Grep(args[0], args[1])
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Println(h)
	}
	return nil
}

func cmdHashFile(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("expected <file>")
	}
	sum, err := workload.HashFile(args[0])
	if err != nil {
		return err
	}
	fmt.Println(sum)
	return nil
}

func cmdSortFile(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("expected <file> <destfile>")
	}
	n, err := workload.SortFile(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("%d lines sorted\n", n)
	return nil
}
