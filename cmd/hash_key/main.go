// hash_key prints the bcrypt hash for an operator key, suitable for
// the ADMIN_KEY_HASH environment variable.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/xelth-com/eckdepotgo/internal/utils"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hash_key <operator-key>")
		os.Exit(2)
	}

	hash, err := utils.HashOperatorKey(os.Args[1])
	if err != nil {
		log.Fatalf("failed to hash key: %v", err)
	}
	fmt.Println(hash)
}
