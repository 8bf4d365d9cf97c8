package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
)

// Thin terminal client: prints whatever the server sends, forwards whatever
// the user types. All lobby logic lives server side.
func main() {
	if err := run(); err != nil {
		log.Printf("lobby client: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:5555", "lobby server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s\n", *addr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			fmt.Println(scanner.Text())
		}
		fmt.Println("Disconnected from server.")
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		line := stdin.Text()
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			break
		}
		if line == "/quit" {
			break
		}
	}

	<-done
	return nil
}
