package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health            - Health check")
	fmt.Println("  GET  /stats             - Server statistics")
	fmt.Println("  GET  /rubric            - Active rubric")
	fmt.Println("  POST /evaluate          - Full evaluation pipeline")
	fmt.Println("  POST /extract/resume    - Extract a resume record")
	fmt.Println("  POST /extract/job       - Extract job requirements")
	fmt.Println("  POST /score             - Score structured records")
	fmt.Println("  POST /validate          - Check an evaluation for gaps")
	fmt.Println("  POST /report            - Synthesize a report")
	fmt.Println("  POST /rubric/normalize  - Normalize a rubric document")
}

func (s *Server) displayAuthInfo() {
	if len(s.apiKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.apiKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in POST requests")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.cfg.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.cfg.MaxRequestSize, float64(s.cfg.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.rateLimiter == nil {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.cfg.RateLimit.RequestsPerMin, s.cfg.RateLimit.BurstSize)
	if s.cfg.RateLimit.ByAPIKey {
		fmt.Println("  - Per API key rate limiting enabled")
	}
	if s.cfg.RateLimit.ByIP {
		fmt.Println("  - Per IP address rate limiting enabled")
	}
}
