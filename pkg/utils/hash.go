package utils

import (
	"hash/crc32"
)

func GetHashBucket(key string, bucketSize uint32) uint32 {
	// 某些钱包交易特别频繁导致锁冲突时，修改hash算法或增大桶数
	return crc32.ChecksumIEEE([]byte(key)) % bucketSize
}
