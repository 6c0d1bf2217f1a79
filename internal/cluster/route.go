package cluster

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strings"
)

// 路由表文件路径
const procNetRoute = "/proc/net/route"

// defaultGateway 从 /proc/net/route 获取默认网关 IP
// 在 Pod 内，默认网关通常就是节点地址，Kubelet 监听在该地址上。
func defaultGateway() (string, error) {
	file, err := os.Open(procNetRoute)
	if err != nil {
		return "", fmt.Errorf("无法打开路由表文件 %s: %w", procNetRoute, err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)

	// 第一行是标题：Iface Destination Gateway Flags ...
	_ = scanner.Scan()

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}

		// 默认路由的 Destination 是 00000000
		if fields[1] != "00000000" {
			continue
		}

		gw, err := parseHexIP(fields[2])
		if err != nil {
			return "", err
		}
		return gw, nil
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("读取路由表失败: %w", err)
	}
	return "", fmt.Errorf("路由表中没有默认路由")
}

// parseHexIP 解析路由表中小端序十六进制的 IPv4 地址
func parseHexIP(hexIP string) (string, error) {
	raw, err := hex.DecodeString(hexIP)
	if err != nil || len(raw) != 4 {
		return "", fmt.Errorf("无效的网关地址: %s", hexIP)
	}
	// /proc/net/route 按小端序存储，需要翻转字节
	ip := net.IPv4(raw[3], raw[2], raw[1], raw[0])
	return ip.String(), nil
}
