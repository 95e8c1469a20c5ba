package main

import (
	"fmt"
	"net/http"
	"time"
)

// Blocks until the phonebook service answers its unauthenticated ping
// endpoint, then exits. Useful in scripts that start the service and the
// database together.
func main() {
	totalWaitTime := 0
	for {
		res, err := http.Get("http://localhost:8080/ping")
		if err == nil {
			if res.StatusCode == http.StatusOK {
				fmt.Println(res)
				break
			} else {
				fmt.Println(res)
			}
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
