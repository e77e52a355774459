package main

// Message constants
const (
	MsgRootShort = "Structural pattern matching for JSON values"
	MsgRootLong  = `pmatch compiles destructuring patterns such as

  {type: 'move', to: [x, y]}
  Point(x, _)
  [head, ...tail]

and matches them against JSON values, on the command line or as a service.`

	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig     = "Config file (default $XDG_CONFIG_HOME/pmatch/config.yaml)"
	MsgFlagExtractors = "Built-in extractors to register (default none; 'all' for every one)"

	MsgParseShort      = "Print the canonical form of a pattern"
	MsgFlagAST         = "Print the syntax tree as JSON"
	MsgExtractShort    = "Match JSON arguments against a pattern and print the captures"
	MsgMatchShort      = "Run JSON arguments through a case file"
	MsgFlagCases       = "Case file (YAML, TOML or JSON)"
	MsgServeShort      = "Serve the HTTP API, the TCP line protocol and metrics"
	MsgExtractorsShort = "List the built-in extractors"
	MsgVersionShort    = "Print version information"

	MsgErrNoCases = "no case file given: use --cases or set cases in the config"
	MsgErrBadArg  = "argument %d is not valid JSON: %w"
)

// serve flags
const (
	MsgFlagListen        = "HTTP API address"
	MsgFlagTCP           = "TCP line protocol address"
	MsgFlagMetrics       = "Metrics and pprof address (empty disables)"
	MsgFlagCasesURL      = "URL to poll for the case set"
	MsgFlagFetchInterval = "Poll interval for --cases-url"
)
