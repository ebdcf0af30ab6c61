//go:build windows

package webgpu

// WGSL compute shaders, kept as string constants.

// workgroupSize is the number of threads per workgroup for 1D dispatches.
const workgroupSize = 256

const binaryShaderHeader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
`

const addShader = binaryShaderHeader + `
        result[idx] = a[idx] + b[idx];
    }
}
`

const subShader = binaryShaderHeader + `
        result[idx] = a[idx] - b[idx];
    }
}
`

const mulShader = binaryShaderHeader + `
        result[idx] = a[idx] * b[idx];
    }
}
`

const divShader = binaryShaderHeader + `
        result[idx] = a[idx] / b[idx];
    }
}
`

const unaryShaderHeader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
`

const tanhShader = unaryShaderHeader + `
        result[idx] = tanh(input[idx]);
    }
}
`

const siluShader = unaryShaderHeader + `
        let x = input[idx];
        result[idx] = x / (1.0 + exp(-x));
    }
}
`

const geluShader = unaryShaderHeader + `
        let x = input[idx];
        let c = 0.7978845608028654; // sqrt(2/pi)
        let inner = c * (x + 0.044715 * x * x * x);
        result[idx] = 0.5 * x * (1.0 + tanh(inner));
    }
}
`

const rsqrtShader = unaryShaderHeader + `
        result[idx] = inverseSqrt(input[idx]);
    }
}
`

// matmulShader computes C = A @ B with A [M, K], B [K, N], C [M, N].
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,
    K: u32,
    N: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        sum = sum + a[row * params.K + k] * b[k * params.N + col];
    }
    result[row * params.N + col] = sum;
}
`

// softmaxShader computes a numerically stable softmax over the last
// dimension of a [rows, cols] tensor, one thread per row.
const softmaxShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }

    let base = row * params.cols;

    var max_val: f32 = input[base];
    for (var c: u32 = 1u; c < params.cols; c = c + 1u) {
        max_val = max(max_val, input[base + c]);
    }

    var sum: f32 = 0.0;
    for (var c: u32 = 0u; c < params.cols; c = c + 1u) {
        let e = exp(input[base + c] - max_val);
        result[base + c] = e;
        sum = sum + e;
    }

    for (var c: u32 = 0u; c < params.cols; c = c + 1u) {
        result[base + c] = result[base + c] / sum;
    }
}
`
