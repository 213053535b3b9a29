package rigptt

import (
	"os"
	"strings"
)

/* Get a default service name to publish. By default,
 * "rigptt on <hostname>", or just "rigptt" if hostname cannot
 * be obtained.
 */
func dnsSDDefaultServiceName() string {
	var hostname, hostnameErr = os.Hostname()
	if hostnameErr != nil {
		return "rigptt"
	}

	// on some systems, an FQDN is returned; remove domain part
	hostname, _, _ = strings.Cut(hostname, ".")

	return "rigptt on " + hostname
}
