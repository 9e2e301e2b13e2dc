package portscan

import (
	"bufio"
	"strconv"
	"strings"
)

// parseLsofPIDs parses `lsof -t` output: one pid per line.
// Result keeps first-seen order and drops duplicates and non-positive ids.
func parseLsofPIDs(out string) []int {
	var pids []int
	seen := make(map[int]struct{})
	s := bufio.NewScanner(strings.NewReader(out))
	for s.Scan() {
		pid, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil || pid <= 0 {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		pids = append(pids, pid)
	}
	return pids
}

// parseNetstatPIDs parses `netstat -ano` output. A row counts when its local
// address ends in ":<port>" and its state is LISTENING; the pid is the last
// whitespace-delimited token.
//
//	Proto  Local Address          Foreign Address        State           PID
//	TCP    0.0.0.0:18789          0.0.0.0:0              LISTENING       4242
//	TCP    [::]:18789             [::]:0                 LISTENING       4242
func parseNetstatPIDs(out string, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	var pids []int
	seen := make(map[int]struct{})
	s := bufio.NewScanner(strings.NewReader(out))
	for s.Scan() {
		line := s.Text()
		if !strings.Contains(line, "LISTENING") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasSuffix(fields[1], suffix) {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || pid <= 0 {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		pids = append(pids, pid)
	}
	return pids
}
