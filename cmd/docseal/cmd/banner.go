package cmd

import (
	"fmt"
)

const banner = `
  _____             _____            _
 |  __ \           / ____|          | |
 | |  | | ___   ___| (___   ___ __ _| |
 | |  | |/ _ \ / __|\___ \ / _ \/ _` + "`" + ` | |
 | |__| | (_) | (__ ___) |  __/ (_| | |
 |_____/ \___/ \___|____/ \___|\__,_|_|

`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Zero-Knowledge Document Encryption - Version %s\x1b[0m\n\n", Version)
}
