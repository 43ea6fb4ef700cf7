// Command keytool prepares operator secrets for a MediCore deployment.
//
//	keytool gen-key                  32 byte AES key for cipher.key / cipher.retired_keys
//	keytool gen-secret               64 byte HMAC secret for jwt.*_secret
//	keytool hash-password            hash a password read from the terminal
//	keytool admin-sql -email ...     INSERT statement for an admin account
//
// Password hashing honors MEDICORE_HASH_ALGORITHM, MEDICORE_HASH_BCRYPT_COST
// and MEDICORE_HASH_PEPPER so the output verifies on the server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "keytool:", err)
		os.Exit(1)
	}
}
