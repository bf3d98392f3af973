package geoip

import (
	"log"
	"net"
	"sync"

	"github.com/oschwald/maxminddb-golang"
)

var (
	mu     sync.RWMutex
	reader *maxminddb.Reader
)

// Load 打开 mmdb 库；文件缺失时仅告警，审计记录不做国家归属
func Load(path string) {
	if path == "" {
		return
	}
	r, err := maxminddb.Open(path)
	if err != nil {
		log.Printf("geoip database unavailable: %v", err)
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if reader != nil {
		_ = reader.Close()
	}
	reader = r
}

// CountryCode 返回 IP 所属国家的 ISO 代码，查不到返回空串
func CountryCode(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	mu.RLock()
	defer mu.RUnlock()
	if reader == nil {
		return ""
	}
	var record struct {
		Country struct {
			ISOCode string `maxminddb:"iso_code"`
		} `maxminddb:"country"`
	}
	if err := reader.Lookup(ip, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}
