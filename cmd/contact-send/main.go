// contact-send envia uma submissão pelo gateway sem subir o servidor HTTP.
// Usa a mesma configuração (env/.env/CONFIG_FILE) do cmd/gateway.
//
//	contact-send -first Jane -last Doe -email jane@example.com -message "Hi"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"contact-gateway/config"
	"contact-gateway/contact"
	"contact-gateway/contact/domain"
	"contact-gateway/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("contact-send", flag.ContinueOnError)
	var (
		first    = fs.String("first", "", "first name")
		last     = fs.String("last", "", "last name")
		email    = fs.String("email", "", "submitter email")
		company  = fs.String("company", "", "company (optional)")
		message  = fs.String("message", "", "message body")
		ip       = fs.String("ip", "", "ip address used for rate limiting (optional)")
		testMode = fs.Bool("test", false, "force test mode (no email is sent)")
		timeout  = fs.Duration("timeout", 30*time.Second, "overall timeout")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *first == "" || *last == "" || *email == "" || *message == "" {
		fmt.Fprintln(os.Stderr, "contact-send: -first, -last, -email and -message are required")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}
	if *testMode {
		cfg.Email.TestMode = true
	}

	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: "console", Writer: os.Stderr})

	comp, err := contact.Build(cfg, log, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to build contact gateway")
		return 1
	}
	defer comp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res := comp.Gateway.SendContactEmail(ctx, domain.Submission{
		FirstName: *first,
		LastName:  *last,
		Email:     *email,
		Company:   *company,
		Message:   *message,
		IPAddress: *ip,
		UserAgent: "contact-send",
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)

	if !res.Success {
		return 1
	}
	return 0
}
