package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayEngineInfo()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health         - Health check")
	fmt.Println("  GET  /stats          - Server statistics")
	fmt.Println("  GET  /taxonomy       - Active taxonomy summary (requires API key)")
	fmt.Println("  POST /analyze        - Analyze one resume (requires API key)")
	fmt.Println("  POST /analyze/batch  - Analyze up to 20 resumes (requires API key)")
}

// displayEngineInfo shows the taxonomy in effect and whether it is watched
func (s *Server) displayEngineInfo() {
	if engine := s.currentEngine(); engine != nil {
		fmt.Printf("Taxonomy: version %s (%d industries)\n", engine.Taxonomy().Version, len(engine.Taxonomy().Industries()))
	}
	if s.taxonomyWatcher != nil {
		fmt.Printf("Taxonomy hot reload: ENABLED (%s)\n", s.taxonomyWatcher.Path())
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if n := s.apiKeys.len(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /analyze and /taxonomy")
		if s.vaultWatcher != nil {
			fmt.Println("  - Keys rotate from Vault")
		}
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
	if s.MaxDocumentChars > 0 {
		fmt.Printf("Document length limit: %d characters\n", s.MaxDocumentChars)
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstSize)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
