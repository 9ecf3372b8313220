package render

// chunkVertexShader and chunkFragmentShader render one chunk's greedy mesh
// against a texture-array atlas, sampling the per-vertex atlas layer
// produced by C5 (§3's MeshBuffers.TexLayers) and discarding fragments
// for alpha-tested blocks below a cutoff.
const chunkVertexShader = `
#version 410 core
layout (location = 0) in vec3 inPosition;
layout (location = 1) in vec2 inUV;
layout (location = 2) in float inTexLayer;
layout (location = 3) in vec3 inNormal;
layout (location = 4) in float inIsWater;
layout (location = 5) in float inIsAlphaTested;

uniform mat4 proj;
uniform mat4 view;
uniform vec3 chunkOrigin;

out vec2 fragUV;
out float fragTexLayer;
out vec3 fragNormal;
out float fragIsWater;
out float fragIsAlphaTested;

void main() {
    vec3 worldPos = inPosition + chunkOrigin;
    gl_Position = proj * view * vec4(worldPos, 1.0);
    fragUV = inUV;
    fragTexLayer = inTexLayer;
    fragNormal = inNormal;
    fragIsWater = inIsWater;
    fragIsAlphaTested = inIsAlphaTested;
}
`

const chunkFragmentShader = `
#version 410 core
in vec2 fragUV;
in float fragTexLayer;
in vec3 fragNormal;
in float fragIsWater;
in float fragIsAlphaTested;

uniform sampler2DArray textureArray;
uniform vec3 lightDir;

out vec4 outColor;

void main() {
    vec4 texel = texture(textureArray, vec3(fract(fragUV), fragTexLayer));
    if (fragIsAlphaTested > 0.5 && texel.a < 0.5) {
        discard;
    }

    float diffuse = max(dot(normalize(fragNormal), normalize(lightDir)), 0.25);
    vec4 color = vec4(texel.rgb * diffuse, texel.a);
    if (fragIsWater > 0.5) {
        color.a *= 0.75;
    }
    outColor = color;
}
`
