package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrUniqueViolation 存储层唯一约束兜底拒绝（如重复预约在并发下绕过了应用层预检）
var ErrUniqueViolation = errors.New("记录已存在")
