package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:   	Announce the rigctl service using DNS-SD
 *
 * Description:
 *
 *     Most people have typed in enough IP addresses and ports by now, and
 *     would rather just pick the PTT server off a list of what is on the
 *     local network.
 *
 *     This uses the pure-Go github.com/brutella/dnssd package for
 *     mDNS/DNS-SD service announcement without requiring any system
 *     daemon or C library dependencies.
 */

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

const DNS_SD_SERVICE = "_rigctld._tcp"

// AnnounceRigctl advertises port until ctx is done.  Setup errors are
// returned; the responder itself runs in the background.
func AnnounceRigctl(ctx context.Context, cfg DNSSDConfig, port int, logger *log.Logger) error {
	logger = componentLogger(logger, "dns-sd")

	var name = cfg.Name
	if name == "" {
		name = dnsSDDefaultServiceName()
	}

	var sv, svErr = dnssd.NewService(dnssd.Config{ //nolint:exhaustruct
		Name: name,
		Type: DNS_SD_SERVICE,
		Port: port,
	})
	if svErr != nil {
		return fmt.Errorf("DNS-SD: create service: %w", svErr)
	}

	var rp, rpErr = dnssd.NewResponder()
	if rpErr != nil {
		return fmt.Errorf("DNS-SD: create responder: %w", rpErr)
	}

	var _, addErr = rp.Add(sv)
	if addErr != nil {
		return fmt.Errorf("DNS-SD: add service: %w", addErr)
	}

	logger.Info("Announcing rigctl", "port", port, "name", name)

	go func() {
		var respondErr = rp.Respond(ctx)
		if respondErr != nil && ctx.Err() == nil {
			logger.Error("Responder error", "err", respondErr)
		}
	}()

	return nil
}
