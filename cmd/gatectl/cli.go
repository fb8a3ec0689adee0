package main

import (
	"fmt"
	"io"
	"path/filepath"
)

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		usage(args, stderr)
		return 2
	}

	switch args[1] {
	case "verify":
		return runVerify(args[2:], stdout, stderr)
	case "authorize":
		return runAuthorize(args[2:], stdout, stderr)
	case "policy":
		if len(args) >= 3 && args[2] == "eval" {
			return runPolicyEval(args[3:], stdout, stderr)
		}
	}

	usage(args, stderr)
	return 2
}

func usage(args []string, w io.Writer) {
	name := "gatectl"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(w, "usage:\n")
	fmt.Fprintf(w, "  %s verify --token <jwt>\n", name)
	fmt.Fprintf(w, "  %s authorize --token <jwt> --roles <user,admin> [--seed <id:status[:role],...>]\n", name)
	fmt.Fprintf(w, "  %s policy eval --status <status> [--policy <path>] [--id <id>] [--role <role>]\n", name)
	fmt.Fprintf(w, "configuration is read from CONFIG_FILE and the environment, as for the server.\n")
}
