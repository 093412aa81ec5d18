// Package config loads and validates the YAML configuration of a trickle
// service.
//
// A minimal file:
//
//	server:
//	  addr: ":8000"
//	store:
//	  backend: local
//	  root: ./data
//	datasets:
//	  weather:
//	    key: weather.csv
//	    exclude: [station]
//	    temporal: [date]
//
// Everything else has a default; see Default.
package config
