// issue-token prints a bearer token for a till clerk, signed with API_SECRET.
//
// Usage:
//   API_SECRET=... go run ./cmd/issue-token --id=7 --name="Ma Hla" --role=cashier
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/retail_ledger/utils"
)

func main() {
	id := flag.Int("id", 0, "clerk id (required)")
	name := flag.String("name", "", "clerk name (required)")
	role := flag.String("role", "cashier", "clerk role")
	flag.Parse()

	if *id == 0 || *name == "" {
		fmt.Fprintln(os.Stderr, "missing required flags")
		flag.Usage()
		os.Exit(2)
	}
	token, err := utils.JwtGenerate(*id, *name, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
