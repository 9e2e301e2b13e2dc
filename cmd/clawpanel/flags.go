package main

type StatusFlags struct {
	Detailed bool
}

type LogsFlags struct {
	Lines int
}

type HistoryFlags struct {
	Limit int
}

type ServeFlags struct {
	Listen        string
	BasePath      string
	MetricsListen string
	Daemonize     bool
	PidFile       string
	LogFile       string
}
